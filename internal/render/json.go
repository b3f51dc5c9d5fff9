package render

import (
	"encoding/json"
	"io"

	"github.com/olehluchkiv/goimplements/internal/resolver"
)

// jsonResult is one JSON document per subject. Interfaces keeps discovery
// order because the ordered map marshals its pairs in insertion order.
type jsonResult struct {
	Subject    string               `json:"subject"`
	Interfaces *resolver.Interfaces `json:"interfaces,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
