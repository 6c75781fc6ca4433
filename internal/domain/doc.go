// Package domain defines the core types of the topoview topology canvas.
//
// This package contains the value types shared by the canvas model, the
// codecs and the persistence layer. It has no dependency on rendering or
// storage.
//
// # Core Types
//
// ObjectRef is a reference to an inventory object (router, port, customer,
// ...) identified by id and class. The canvas never interprets what the
// object means.
//
// Vertex is the sum of everything the canvas can address: an inventory
// object, a free frame, a free label, an ad-hoc cloud icon, or an opaque
// identifier with no visual form.
//
// EdgeKey identifies one connection on a canvas. Its endpoints are tracked
// by the canvas, not by the key.
//
// Layer names one of the five fixed paint layers.
//
// ViewDocument is the format-neutral snapshot of a canvas that every codec
// reads and writes.
//
// # Encoded Annotations
//
// Older documents and callers identify annotations with a single string: a
// random numeric prefix, a 9-character tag and the payload text. The
// EncodeAnnotation and DecodeAnnotation helpers convert between that form and
// the Vertex variants, rejecting malformed identifiers with
// ErrMalformedAnnotation.
package domain
