package domain

import (
	"strconv"
)

// Well-known class names used by the canvas itself
const (
	ClassCloud   = "Cloud"
	ClassGeneric = "InventoryObject"
)

// ObjectRef references an inventory object. An empty Name is a null display name.
type ObjectRef struct {
	ID        int64  `json:"id" yaml:"id"`
	ClassName string `json:"class_name" yaml:"class_name"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
}

// NewObjectRef creates an object reference
func NewObjectRef(id int64, className, name string) ObjectRef {
	return ObjectRef{
		ID:        id,
		ClassName: className,
		Name:      name,
	}
}

// HasName reports whether the object carries a display name
func (r ObjectRef) HasName() bool {
	return r.Name != ""
}

// DisplayName returns the name, or the id when the name is null
func (r ObjectRef) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return strconv.FormatInt(r.ID, 10)
}

func (r ObjectRef) String() string {
	return r.ClassName + "[" + r.DisplayName() + "]"
}
