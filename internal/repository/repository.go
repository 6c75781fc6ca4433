package repository

import (
	"context"
	"time"

	"topoview/internal/domain"
)

// View is a stored view document
type View struct {
	Name      string    `json:"name"`
	Format    string    `json:"format"`
	Digest    string    `json:"digest"`
	Body      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ViewSummary describes a stored view without its body
type ViewSummary struct {
	Name       string    `json:"name"`
	Format     string    `json:"format"`
	Digest     string    `json:"digest"`
	Size       int       `json:"size"`
	Compressed int       `json:"compressed"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository defines the interface for view and object data access
type Repository interface {
	// Views. SaveView reports whether the stored body changed.
	SaveView(ctx context.Context, name, format string, body []byte) (changed bool, err error)
	GetView(ctx context.Context, name string) (*View, error)
	ListViews(ctx context.Context) ([]ViewSummary, error)
	DeleteView(ctx context.Context, name string) error

	// Inventory objects referenced by views
	UpsertObject(ctx context.Context, ref domain.ObjectRef) error
	UpsertObjects(ctx context.Context, refs []domain.ObjectRef) error
	GetObject(ctx context.Context, id int64) (*domain.ObjectRef, error)
	ListObjects(ctx context.Context) ([]domain.ObjectRef, error)

	// Close releases resources
	Close() error
}
