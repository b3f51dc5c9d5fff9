package analyzer

import "go/types"

// InterfaceDef represents a discovered Go interface.
type InterfaceDef struct {
	Name       string
	PkgPath    string
	PkgName    string
	Embeds     []string // qualified names of embedded named interfaces
	NumMethods int
	TypeObj    *types.Interface
	SourceFile string
}

// QualifiedName is the registry name of the interface: "<pkgpath>.<Name>",
// or just the name for predeclared interfaces such as error.
func (d *InterfaceDef) QualifiedName() string {
	return qualify(d.PkgPath, d.Name)
}

// TypeDef represents a discovered named, non-interface Go type.
type TypeDef struct {
	Name       string
	PkgPath    string
	PkgName    string
	Parent     string // qualified name of the first embedded named struct, if any
	TypeObj    *types.Named
	SourceFile string
}

// QualifiedName is the registry name of the type.
func (d *TypeDef) QualifiedName() string {
	return qualify(d.PkgPath, d.Name)
}

// Relation captures that a concrete type implements an interface.
type Relation struct {
	Type       *TypeDef
	Interface  *InterfaceDef
	ViaPointer bool // true if only *T (not T) satisfies the interface
}

// Result holds the complete analysis output.
type Result struct {
	Interfaces []InterfaceDef
	Types      []TypeDef
	Relations  []Relation
}

// AnalyzeOptions controls analysis behavior.
type AnalyzeOptions struct {
	Filter            string // package path prefix filter for types
	IncludeStdlib     bool
	IncludeUnexported bool
}

func qualify(pkgPath, name string) string {
	if pkgPath == "" || pkgPath == builtinPkg {
		return name
	}
	return pkgPath + "." + name
}

const builtinPkg = "builtin"
