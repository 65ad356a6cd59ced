package display

import (
	"encoding/json"
	"io"
)

// JSONRenderer provides JSON output for machine consumption
type JSONRenderer struct {
	encoder *json.Encoder
}

// NewJSONRenderer creates a JSON renderer writing indented documents
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return &JSONRenderer{encoder: encoder}
}

func (r *JSONRenderer) Render(result *Result) error {
	if result == nil {
		return nil
	}
	return r.encoder.Encode(result)
}

// RenderError renders an error as JSON
func (r *JSONRenderer) RenderError(err error) error {
	return r.encoder.Encode(map[string]string{"error": err.Error()})
}
