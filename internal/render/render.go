// Package render writes resolver results and failures in the formats the
// CLI and server expose.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/olehluchkiv/goimplements/internal/registry"
	"github.com/olehluchkiv/goimplements/internal/resolver"
)

// Format selects an output rendering.
type Format string

const (
	FormatDump    Format = "dump"
	FormatJSON    Format = "json"
	FormatTable   Format = "table"
	FormatMermaid Format = "mermaid"
)

// Formats lists every supported format, default first.
var Formats = []Format{FormatDump, FormatJSON, FormatTable, FormatMermaid}

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatDump, nil
	case FormatDump, FormatJSON, FormatTable, FormatMermaid:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want one of %s)", s, formatList())
	}
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Lookup is the read side of a registry. Table and Mermaid output use it to
// show where interfaces come from and how they connect.
type Lookup interface {
	Lookup(name string) (registry.Descriptor, bool)
}

// Renderer writes results in one format.
type Renderer struct {
	format Format
	reg    Lookup
}

// New returns a Renderer. reg may be nil; output then carries names only.
func New(format Format, reg Lookup) *Renderer {
	return &Renderer{format: format, reg: reg}
}

// Format returns the renderer's output format.
func (r *Renderer) Format() Format { return r.format }

// Result writes the interfaces resolved for subject.
func (r *Renderer) Result(w io.Writer, subject string, ifaces *resolver.Interfaces) error {
	switch r.format {
	case FormatJSON:
		return WriteJSON(w, jsonResult{Subject: subject, Interfaces: nonNil(ifaces)})
	case FormatTable:
		return writeTable(w, subject, nonNil(ifaces), r.reg)
	case FormatMermaid:
		return writeMermaid(w, subject, nonNil(ifaces), r.reg)
	default:
		return writeDump(w, nonNil(ifaces))
	}
}

// Error writes a failure to resolve subject.
func (r *Renderer) Error(w io.Writer, subject string, err error) error {
	switch r.format {
	case FormatJSON:
		return WriteJSON(w, jsonResult{Subject: subject, Error: err.Error()})
	case FormatDump:
		// Failures dump as false.
		_, werr := fmt.Fprintf(w, "error: %v\nbool(false)\n", err)
		return werr
	default:
		_, werr := fmt.Fprintf(w, "error: %v\n", err)
		return werr
	}
}

// Outcomes writes every outcome in order, results and failures alike.
func (r *Renderer) Outcomes(w io.Writer, outcomes []resolver.Outcome) error {
	for _, o := range outcomes {
		var err error
		if o.Err != nil {
			err = r.Error(w, o.Name, o.Err)
		} else {
			err = r.Result(w, o.Name, o.Interfaces)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func nonNil(m *resolver.Interfaces) *resolver.Interfaces {
	if m == nil {
		return resolver.NewInterfaces()
	}
	return m
}
