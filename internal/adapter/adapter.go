package adapter

import (
	"context"

	"topoview/internal/domain"
)

// Object classes assigned by discovery
const (
	ClassRouter = "Router"
	ClassSwitch = "Switch"
	ClassServer = "Server"
	ClassHost   = "Host"
)

// DiscoverFunc scans targets and stores what it finds
type DiscoverFunc func(ctx context.Context, targets []string) ([]domain.ObjectRef, error)

// Scanner turns scan targets into inventory objects
type Scanner interface {
	Scan(ctx context.Context, targets []string) ([]domain.ObjectRef, error)
}

// ProgressFunc is told about each target once it has been scanned
type ProgressFunc func(target string, found int, err error)
