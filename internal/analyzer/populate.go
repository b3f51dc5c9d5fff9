package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olehluchkiv/goimplements/internal/registry"
)

// Populate defines a descriptor for every interface and type in result.
// Interfaces extend their embedded interfaces; types implement every
// interface they were matched against and take their embedded struct as
// parent. References to names not in result are dropped so the registry
// never points at something it cannot resolve. Parents that would close an
// inheritance cycle are dropped too.
//
// Names that are already defined with a different shape keep their first
// definition. It returns the number of descriptors added or confirmed.
func Populate(result *Result, reg registry.Definer, logger *slog.Logger) (int, error) {
	known := make(map[string]bool, len(result.Interfaces)+len(result.Types))
	for i := range result.Interfaces {
		known[result.Interfaces[i].QualifiedName()] = true
	}
	for i := range result.Types {
		known[result.Types[i].QualifiedName()] = true
	}

	implements := make(map[string][]string)
	for _, rel := range result.Relations {
		tName := rel.Type.QualifiedName()
		implements[tName] = append(implements[tName], rel.Interface.QualifiedName())
	}

	parents := make(map[string]string, len(result.Types))
	for i := range result.Types {
		typ := &result.Types[i]
		if typ.Parent == "" {
			continue
		}
		if !known[typ.Parent] {
			logger.Debug("dropping unknown parent", "type", typ.QualifiedName(), "parent", typ.Parent)
			continue
		}
		parents[typ.QualifiedName()] = typ.Parent
	}
	// Structs may embed each other through pointers; a parent chain that
	// leads back to the type is cut there.
	var cyclic []string
	for name := range parents {
		if parentChainReaches(parents, name) {
			cyclic = append(cyclic, name)
		}
	}
	for _, name := range cyclic {
		logger.Debug("dropping cyclic parent", "type", name, "parent", parents[name])
		delete(parents, name)
	}

	var ds []registry.Descriptor
	for i := range result.Interfaces {
		iface := &result.Interfaces[i]
		d := registry.Interface(iface.QualifiedName(), keepKnown(iface.Embeds, known)...)
		d.Source = iface.SourceFile
		ds = append(ds, d)
	}
	for i := range result.Types {
		typ := &result.Types[i]
		d := registry.Class(typ.QualifiedName(), parents[typ.QualifiedName()], implements[typ.QualifiedName()]...)
		d.Source = typ.SourceFile
		ds = append(ds, d)
	}

	n := 0
	for _, d := range ds {
		if err := reg.Define(d); err != nil {
			if errors.Is(err, registry.ErrConflict) {
				logger.Debug("keeping earlier definition", "name", d.Name, "error", err)
				continue
			}
			return n, fmt.Errorf("defining %s: %w", d.Name, err)
		}
		n++
	}
	return n, nil
}

// parentChainReaches reports whether following parents from name's parent
// arrives back at name.
func parentChainReaches(parents map[string]string, name string) bool {
	seen := map[string]bool{}
	for cur := parents[name]; cur != ""; cur = parents[cur] {
		if cur == name {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
	return false
}

func keepKnown(names []string, known map[string]bool) []string {
	var out []string
	for _, n := range names {
		if known[n] {
			out = append(out, n)
		}
	}
	return out
}

// PackageAutoloader loads the Go package a missing name belongs to. Names
// have the form "<import path>.<TypeName>", e.g. "io.Reader" or
// "example.com/shapes.Circle".
type PackageAutoloader struct {
	Dir     string // directory packages are resolved from
	Options AnalyzeOptions
	Logger  *slog.Logger
}

func (a PackageAutoloader) Autoload(ctx context.Context, name string, reg registry.Definer) error {
	pkgPath, _, ok := SplitQualified(name)
	if !ok {
		return nil
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "package-autoload")

	opts := a.Options
	// The requested package is wanted even if the defaults would drop it.
	if isStdlib(pkgPath) {
		opts.IncludeStdlib = true
	}
	opts.Filter = ""

	logger.Debug("loading package", "package", pkgPath, "name", name)
	result, err := AnalyzePackages(ctx, a.Dir, []string{pkgPath}, opts, logger)
	if err != nil {
		return fmt.Errorf("autoload %s: %w", name, err)
	}
	_, err = Populate(Filter(result, opts), reg, logger)
	return err
}

// SplitQualified splits "<import path>.<TypeName>" at the last dot.
func SplitQualified(name string) (pkgPath, typeName string, ok bool) {
	if strings.ContainsRune(name, '\\') {
		return "", "", false
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return "", "", false
	}
	pkgPath, typeName = name[:i], name[i+1:]
	if strings.ContainsRune(typeName, '/') {
		return "", "", false
	}
	return pkgPath, typeName, true
}
