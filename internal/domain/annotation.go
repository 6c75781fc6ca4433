package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Annotation tags. All three are exactly TagLength characters long.
const (
	TagFreeFrame = "freeFrame"
	TagFreeLabel = "freeLabel"
	TagCloudIcon = "cloudIcon"

	TagLength = 9
)

var (
	// ErrMalformedAnnotation is returned for encoded identifiers whose tag is
	// missing or not at the expected structural position
	ErrMalformedAnnotation = errors.New("malformed annotation identifier")
	// ErrTagInPayload is returned when payload text embeds a tag, which would
	// make the encoded identifier ambiguous
	ErrTagInPayload = errors.New("annotation payload contains a reserved tag")
	// ErrUnknownTag is returned when encoding with a tag that is not one of the three
	ErrUnknownTag = errors.New("unknown annotation tag")
)

var annotationTags = []string{TagFreeFrame, TagFreeLabel, TagCloudIcon}

// NewAnnotationID mints a random numeric identity for an annotation vertex
func NewAnnotationID() string {
	return strconv.FormatUint(uint64(uuid.New().ID()), 10)
}

// EncodeAnnotation builds a legacy encoded identifier from a tag and payload
func EncodeAnnotation(tag, payload string) (string, error) {
	if !isTag(tag) {
		return "", fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	if containsTag(payload) {
		return "", fmt.Errorf("%w: %q", ErrTagInPayload, payload)
	}
	return NewAnnotationID() + tag + payload, nil
}

// DecodeAnnotation converts a legacy encoded identifier into its vertex.
// Tags are tried in the order freeFrame, freeLabel, cloudIcon.
func DecodeAnnotation(s string) (Vertex, error) {
	for _, tag := range annotationTags {
		if !strings.Contains(s, tag) {
			continue
		}
		id, payload, err := splitAnnotation(s, tag)
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagFreeFrame:
			return FrameVertex{ID: id, Text: payload}, nil
		case TagFreeLabel:
			return LabelVertex{ID: id, Text: payload}, nil
		default:
			return CloudVertex{ID: id, Text: payload}, nil
		}
	}
	return nil, fmt.Errorf("%w: no tag in %q", ErrMalformedAnnotation, s)
}

// ParseVertex classifies a bare identifier. Identifiers carrying the frame or
// label tag decode to those variants; everything else, including a bare
// cloudIcon identifier, is opaque.
func ParseVertex(s string) (Vertex, error) {
	if strings.Contains(s, TagFreeFrame) || strings.Contains(s, TagFreeLabel) {
		v, err := DecodeAnnotation(s)
		if err != nil {
			return nil, err
		}
		if v.Kind() == VertexKindCloud {
			return OpaqueVertex{Raw: s}, nil
		}
		return v, nil
	}
	return OpaqueVertex{Raw: s}, nil
}

// VertexFromObject maps an inventory object to its vertex. Objects whose
// display name carries the cloudIcon tag are ad-hoc clouds labelled with the
// text following the tag.
func VertexFromObject(ref ObjectRef) Vertex {
	idx := strings.Index(ref.Name, TagCloudIcon)
	if idx < 0 {
		return ObjectVertex{Ref: ref}
	}
	return CloudVertex{
		ID:   strconv.FormatInt(ref.ID, 10),
		Text: ref.Name[idx+TagLength:],
	}
}

// splitAnnotation returns the numeric prefix and the payload that starts
// exactly TagLength characters after the first occurrence of tag
func splitAnnotation(s, tag string) (string, string, error) {
	idx := strings.Index(s, tag)
	if idx < 0 {
		return "", "", fmt.Errorf("%w: missing %s tag in %q", ErrMalformedAnnotation, tag, s)
	}
	prefix := s[:idx]
	if prefix == "" || !isDigits(prefix) {
		return "", "", fmt.Errorf("%w: %s tag at offset %d is not preceded by a numeric id in %q",
			ErrMalformedAnnotation, tag, idx, s)
	}
	if len(s) < idx+TagLength {
		return "", "", fmt.Errorf("%w: %q is shorter than its tag", ErrMalformedAnnotation, s)
	}
	return prefix, s[idx+TagLength:], nil
}

func isTag(tag string) bool {
	for _, t := range annotationTags {
		if t == tag {
			return true
		}
	}
	return false
}

func containsTag(s string) bool {
	for _, t := range annotationTags {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
