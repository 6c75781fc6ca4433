package codec

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"topoview/internal/domain"
)

var (
	// ErrUnknownFormat is returned for formats with no registered codec
	ErrUnknownFormat = errors.New("unknown view format")
	// ErrMalformedDocument is returned when a document cannot be decoded
	ErrMalformedDocument = errors.New("malformed view document")
)

// Importer interface for importing view documents from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.ViewDocument, error)
	Format() string
}

// Exporter interface for exporting view documents to various formats
type Exporter interface {
	Export(doc *domain.ViewDocument, w io.Writer) error
	Format() string
}

// Codec both imports and exports one format
type Codec interface {
	Importer
	Exporter
}

// Registry maps format names to codecs
type Registry struct {
	codecs map[string]Codec
}

// NewRegistry creates a registry holding the xml, yaml and json codecs
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[string]Codec)}
	r.Register(NewViewXMLCodec())
	r.Register(NewYAMLCodec())
	r.Register(NewJSONCodec())
	return r
}

// Register adds or replaces the codec for its format
func (r *Registry) Register(c Codec) {
	r.codecs[c.Format()] = c
}

// Get returns the codec for format. "yml" is accepted for yaml.
func (r *Registry) Get(format string) (Codec, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "yml" {
		format = "yaml"
	}
	c, ok := r.codecs[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return c, nil
}

// Formats returns the registered format names
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.codecs))
	for f := range r.codecs {
		out = append(out, f)
	}
	return out
}

// ExportScene snapshots src and writes it with e
func ExportScene(e Exporter, src WidgetSource, w io.Writer) error {
	doc, err := Snapshot(src)
	if err != nil {
		return err
	}
	return e.Export(doc, w)
}
