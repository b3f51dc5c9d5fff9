package analyzer

import (
	"context"
	"fmt"
	"go/token"
	"go/types"
	"log/slog"
	"path/filepath"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/types/typeutil"
)

// stdlibPatterns are loaded alongside the module when stdlib interfaces
// are requested, so that types can be matched against them.
var stdlibPatterns = []string{"fmt", "io", "io/fs", "encoding", "encoding/json", "sort", "hash", "context"}

// Analyze loads every package under dir and finds all interfaces, named
// types, and interface-implementation relationships.
func Analyze(ctx context.Context, dir string, opts AnalyzeOptions, logger *slog.Logger) (*Result, error) {
	return AnalyzePackages(ctx, dir, []string{"./..."}, opts, logger)
}

// AnalyzePackages is Analyze restricted to the given package patterns,
// resolved relative to dir.
func AnalyzePackages(ctx context.Context, dir string, patterns []string, opts AnalyzeOptions, logger *slog.Logger) (*Result, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax |
			packages.NeedTypesInfo | packages.NeedImports,
		Dir:     dir,
		Context: ctx,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	if opts.IncludeStdlib {
		stdPkgs, stdErr := packages.Load(cfg, stdlibPatterns...)
		if stdErr != nil {
			logger.Warn("failed to load stdlib packages", "error", stdErr)
		} else {
			pkgs = append(pkgs, stdPkgs...)
		}
	}

	logger.Info("packages loaded", "patterns", patterns, "packages_count", len(pkgs))

	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			logger.Warn("package load error", "package", pkg.PkgPath, "error", e.Msg)
		}
	}

	c := newCollector(dir, logger)
	for _, pkg := range pkgs {
		if pkg.Types == nil {
			continue
		}
		c.collectPackage(pkg.Types, pkg.Fset, true)
		for _, imp := range pkg.Imports {
			if imp.Types == nil {
				continue
			}
			c.collectPackage(imp.Types, imp.Fset, false)
		}
	}
	c.collectBuiltinError()

	logger.Info("types collected", "interfaces", len(c.ifaces), "types", len(c.types))

	relations := matchImplementations(c.types, c.ifaces, logger)
	logger.Info("analysis complete", "relations", len(relations))

	return &Result{
		Interfaces: c.ifaces,
		Types:      c.types,
		Relations:  relations,
	}, nil
}

type collector struct {
	moduleRoot string
	logger     *slog.Logger
	ifaces     []InterfaceDef
	types      []TypeDef
	seenIfaces map[string]bool
	seenTypes  map[string]bool
}

func newCollector(moduleRoot string, logger *slog.Logger) *collector {
	return &collector{
		moduleRoot: moduleRoot,
		logger:     logger,
		seenIfaces: make(map[string]bool),
		seenTypes:  make(map[string]bool),
	}
}

// collectPackage records the package's named interfaces and, when
// withTypes is set, its named concrete types. Imported packages contribute
// interfaces only.
func (c *collector) collectPackage(pkg *types.Package, fset *token.FileSet, withTypes bool) {
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}
		key := qualify(pkg.Path(), tn.Name())

		if iface, ok := named.Underlying().(*types.Interface); ok {
			if c.seenIfaces[key] {
				continue
			}
			c.seenIfaces[key] = true
			c.ifaces = append(c.ifaces, InterfaceDef{
				Name:       tn.Name(),
				PkgPath:    pkg.Path(),
				PkgName:    pkg.Name(),
				Embeds:     embeddedInterfaces(iface),
				NumMethods: iface.NumMethods(),
				TypeObj:    iface,
				SourceFile: resolveSourceFile(fset, tn.Pos(), c.moduleRoot),
			})
			c.logger.Debug("found interface", "name", key, "methods", iface.NumMethods())
			continue
		}

		if !withTypes || c.seenTypes[key] {
			continue
		}
		c.seenTypes[key] = true
		c.types = append(c.types, TypeDef{
			Name:       tn.Name(),
			PkgPath:    pkg.Path(),
			PkgName:    pkg.Name(),
			Parent:     embeddedParent(named),
			TypeObj:    named,
			SourceFile: resolveSourceFile(fset, tn.Pos(), c.moduleRoot),
		})
		c.logger.Debug("found type", "name", key)
	}
}

// collectBuiltinError adds the predeclared error interface.
func (c *collector) collectBuiltinError() {
	tn, ok := types.Universe.Lookup("error").(*types.TypeName)
	if !ok {
		return
	}
	iface, ok := tn.Type().Underlying().(*types.Interface)
	if !ok || c.seenIfaces["error"] {
		return
	}
	c.seenIfaces["error"] = true
	c.ifaces = append(c.ifaces, InterfaceDef{
		Name:       "error",
		PkgPath:    builtinPkg,
		PkgName:    builtinPkg,
		NumMethods: iface.NumMethods(),
		TypeObj:    iface,
	})
}

func matchImplementations(namedTypes []TypeDef, ifaces []InterfaceDef, logger *slog.Logger) []Relation {
	var methodSetCache typeutil.MethodSetCache
	var relations []Relation

	for i := range namedTypes {
		t := &namedTypes[i]
		valType := t.TypeObj
		ptrType := types.NewPointer(valType)
		valMethodSet := methodSetCache.MethodSet(valType)
		ptrMethodSet := methodSetCache.MethodSet(ptrType)

		for j := range ifaces {
			iface := &ifaces[j]

			// Every type satisfies an empty interface; that says nothing.
			if iface.TypeObj.NumMethods() == 0 {
				continue
			}

			switch {
			case types.Implements(valType, iface.TypeObj) || matchesMethodSet(valMethodSet, iface.TypeObj):
				relations = append(relations, Relation{Type: t, Interface: iface})
				logger.Debug("match found", "type", t.Name, "interface", iface.Name, "via_pointer", false)
			case types.Implements(ptrType, iface.TypeObj) || matchesMethodSet(ptrMethodSet, iface.TypeObj):
				relations = append(relations, Relation{Type: t, Interface: iface, ViaPointer: true})
				logger.Debug("match found", "type", t.Name, "interface", iface.Name, "via_pointer", true)
			}
		}
	}
	return relations
}

// embeddedInterfaces lists the named interfaces embedded in iface, in
// declaration order.
func embeddedInterfaces(iface *types.Interface) []string {
	var out []string
	for i := 0; i < iface.NumEmbeddeds(); i++ {
		n, ok := types.Unalias(iface.EmbeddedType(i)).(*types.Named)
		if !ok {
			continue
		}
		if _, ok := n.Underlying().(*types.Interface); !ok {
			continue
		}
		out = append(out, objectName(n.Obj()))
	}
	return out
}

// embeddedParent returns the first embedded named struct of a struct type.
// Go has no inheritance; struct embedding is the closest thing to a parent.
func embeddedParent(named *types.Named) string {
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return ""
	}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}
		t := types.Unalias(f.Type())
		if p, ok := t.(*types.Pointer); ok {
			t = types.Unalias(p.Elem())
		}
		n, ok := t.(*types.Named)
		if !ok {
			continue
		}
		if _, ok := n.Underlying().(*types.Struct); !ok || n.Obj() == named.Obj() {
			continue
		}
		return objectName(n.Obj())
	}
	return ""
}

func objectName(obj *types.TypeName) string {
	if obj.Pkg() == nil {
		return obj.Name()
	}
	return qualify(obj.Pkg().Path(), obj.Name())
}

func matchesMethodSet(mset *types.MethodSet, iface *types.Interface) bool {
	for i := 0; i < iface.NumMethods(); i++ {
		m := iface.Method(i)
		if mset.Lookup(m.Pkg(), m.Name()) == nil {
			return false
		}
	}
	return true
}

// resolveSourceFile resolves a token position to a file path relative to moduleRoot.
func resolveSourceFile(fset *token.FileSet, pos token.Pos, moduleRoot string) string {
	if fset == nil || !pos.IsValid() {
		return ""
	}
	position := fset.Position(pos)
	if !position.IsValid() || position.Filename == "" {
		return ""
	}
	rel, err := filepath.Rel(moduleRoot, position.Filename)
	if err != nil {
		return position.Filename
	}
	return rel
}
