package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"topoview/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a view document from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.ViewDocument, error) {
	doc := domain.NewViewDocument()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON: %v", ErrMalformedDocument, err)
	}

	return doc, nil
}

// Export exports a view document to JSON
func (c *JSONCodec) Export(doc *domain.ViewDocument, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
