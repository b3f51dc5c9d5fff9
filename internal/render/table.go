package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/olehluchkiv/goimplements/internal/resolver"
)

func writeTable(w io.Writer, subject string, m *resolver.Interfaces, reg Lookup) error {
	if m.Len() == 0 {
		_, err := fmt.Fprintf(w, "%s: (0 interfaces)\n", subject)
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(subject)
	t.AppendHeader(table.Row{"#", "Interface", "Extends", "Source"})

	i := 0
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		i++
		extends, src := "", ""
		if reg != nil {
			if d, ok := reg.Lookup(pair.Key); ok {
				extends = strings.Join(d.Interfaces, ", ")
				src = d.Source
			}
		}
		t.AppendRow(table.Row{i, pair.Key, extends, src})
	}

	t.Render()
	_, err := fmt.Fprintf(w, "(%d interfaces)\n", m.Len())
	return err
}
