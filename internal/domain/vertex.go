package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidVertexKey is returned when a key string cannot be parsed
var ErrInvalidVertexKey = errors.New("invalid vertex key")

// VertexKind identifies a Vertex variant
type VertexKind string

const (
	VertexKindObject VertexKind = "object"
	VertexKindCloud  VertexKind = "cloud"
	VertexKindFrame  VertexKind = "frame"
	VertexKindLabel  VertexKind = "label"
	VertexKindOpaque VertexKind = "opaque"
)

// VertexKey is the comparable identity of a vertex. Two vertices with equal
// keys are the same canvas vertex.
type VertexKey struct {
	Kind VertexKind
	ID   string
}

func (k VertexKey) String() string {
	return string(k.Kind) + ":" + k.ID
}

// ParseVertexKey parses the "kind:id" form produced by String
func ParseVertexKey(s string) (VertexKey, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return VertexKey{}, fmt.Errorf("%w: %q", ErrInvalidVertexKey, s)
	}
	switch k := VertexKind(kind); k {
	case VertexKindObject, VertexKindCloud, VertexKindFrame, VertexKindLabel, VertexKindOpaque:
		return VertexKey{Kind: k, ID: id}, nil
	}
	return VertexKey{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidVertexKey, kind)
}

// MarshalText encodes the key as "kind:id"
func (k VertexKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a "kind:id" key
func (k *VertexKey) UnmarshalText(b []byte) error {
	parsed, err := ParseVertexKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Element is anything that can be selected on a canvas: a Vertex or an EdgeKey
type Element interface {
	element()
}

// Vertex is a canvas-addressable entity. The set of implementations is closed:
// ObjectVertex, CloudVertex, FrameVertex, LabelVertex and OpaqueVertex.
type Vertex interface {
	Element
	Kind() VertexKind
	Key() VertexKey
}

// EdgeKey identifies one connection on a canvas
type EdgeKey string

func (EdgeKey) element() {}

// ObjectVertex places an inventory object on the canvas
type ObjectVertex struct {
	Ref ObjectRef
}

// NewObjectVertex creates a vertex for an inventory object
func NewObjectVertex(ref ObjectRef) ObjectVertex {
	return ObjectVertex{Ref: ref}
}

func (ObjectVertex) element() {}
func (ObjectVertex) Kind() VertexKind { return VertexKindObject }

// Key identifies object vertices by object id
func (v ObjectVertex) Key() VertexKey {
	return VertexKey{Kind: VertexKindObject, ID: strconv.FormatInt(v.Ref.ID, 10)}
}

// CloudVertex is an ad-hoc cloud icon with no backing inventory object.
// ObjectID is the synthetic object the widget binds to; zero means one is
// minted when the widget is attached.
type CloudVertex struct {
	ID       string
	Text     string
	ObjectID int64
}

// NewCloudVertex creates a cloud vertex with a fresh identity
func NewCloudVertex(text string) CloudVertex {
	return CloudVertex{ID: NewAnnotationID(), Text: text}
}

func (CloudVertex) element() {}
func (CloudVertex) Kind() VertexKind { return VertexKindCloud }

func (v CloudVertex) Key() VertexKey {
	return VertexKey{Kind: VertexKindCloud, ID: v.ID}
}

// Encoded returns the legacy encoded identifier
func (v CloudVertex) Encoded() string {
	return v.ID + TagCloudIcon + v.Text
}

// FrameVertex is a free titled frame
type FrameVertex struct {
	ID   string
	Text string
}

// NewFrameVertex creates a frame vertex with a fresh identity
func NewFrameVertex(title string) FrameVertex {
	return FrameVertex{ID: NewAnnotationID(), Text: title}
}

func (FrameVertex) element() {}
func (FrameVertex) Kind() VertexKind { return VertexKindFrame }

func (v FrameVertex) Key() VertexKey {
	return VertexKey{Kind: VertexKindFrame, ID: v.ID}
}

// Encoded returns the legacy encoded identifier
func (v FrameVertex) Encoded() string {
	return v.ID + TagFreeFrame + v.Text
}

// LabelVertex is a free text label
type LabelVertex struct {
	ID   string
	Text string
}

// NewLabelVertex creates a label vertex with a fresh identity
func NewLabelVertex(text string) LabelVertex {
	return LabelVertex{ID: NewAnnotationID(), Text: text}
}

func (LabelVertex) element() {}
func (LabelVertex) Kind() VertexKind { return VertexKindLabel }

func (v LabelVertex) Key() VertexKey {
	return VertexKey{Kind: VertexKindLabel, ID: v.ID}
}

// Encoded returns the legacy encoded identifier
func (v LabelVertex) Encoded() string {
	return v.ID + TagFreeLabel + v.Text
}

// OpaqueVertex is an identifier the canvas registers but cannot draw
type OpaqueVertex struct {
	Raw string
}

func (OpaqueVertex) element() {}
func (OpaqueVertex) Kind() VertexKind { return VertexKindOpaque }

func (v OpaqueVertex) Key() VertexKey {
	return VertexKey{Kind: VertexKindOpaque, ID: v.Raw}
}
