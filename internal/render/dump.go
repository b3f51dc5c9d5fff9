package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/olehluchkiv/goimplements/internal/resolver"
)

// writeDump prints the mapping in var_dump layout:
//
//	array(1) {
//	  ["Countable"]=>
//	  string(9) "Countable"
//	}
func writeDump(w io.Writer, m *resolver.Interfaces) error {
	var b strings.Builder
	fmt.Fprintf(&b, "array(%d) {\n", m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(&b, "  [\"%s\"]=>\n  string(%d) \"%s\"\n", pair.Key, len(pair.Value), pair.Value)
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}
