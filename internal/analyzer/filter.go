package analyzer

import (
	"strings"
	"unicode"
)

// Filter applies filtering options to the analysis result. Interfaces are
// dropped for being stdlib or unexported; types for being unexported or
// outside the package prefix. Relations survive only if both ends do.
// Types without relations are kept: implementing nothing is an answer too.
func Filter(result *Result, opts AnalyzeOptions) *Result {
	filtered := &Result{}

	ifaceSet := make(map[string]bool)
	for i := range result.Interfaces {
		iface := &result.Interfaces[i]
		if !opts.IncludeStdlib && isStdlib(iface.PkgPath) {
			continue
		}
		if !opts.IncludeUnexported && isUnexported(iface.Name) {
			continue
		}
		filtered.Interfaces = append(filtered.Interfaces, *iface)
		ifaceSet[ifaceKey(iface)] = true
	}

	typeSet := make(map[string]bool)
	for i := range result.Types {
		typ := &result.Types[i]
		if !opts.IncludeUnexported && isUnexported(typ.Name) {
			continue
		}
		if opts.Filter != "" && !strings.HasPrefix(typ.PkgPath, opts.Filter) {
			continue
		}
		filtered.Types = append(filtered.Types, *typ)
		typeSet[typeKey(typ)] = true
	}

	for _, rel := range result.Relations {
		if ifaceSet[ifaceKey(rel.Interface)] && typeSet[typeKey(rel.Type)] {
			filtered.Relations = append(filtered.Relations, rel)
		}
	}

	return filtered
}

func isStdlib(pkgPath string) bool {
	// Stdlib packages have no dot in the first path element
	firstSlash := strings.IndexByte(pkgPath, '/')
	firstPart := pkgPath
	if firstSlash >= 0 {
		firstPart = pkgPath[:firstSlash]
	}
	return !strings.Contains(firstPart, ".")
}

func isUnexported(name string) bool {
	if name == "" {
		return true
	}
	// Built-in types like 'error' are lowercase but considered exported
	if name == "error" {
		return false
	}
	return unicode.IsLower(rune(name[0]))
}

func ifaceKey(iface *InterfaceDef) string {
	return iface.PkgPath + "." + iface.Name
}

func typeKey(typ *TypeDef) string {
	return typ.PkgPath + "." + typ.Name
}
