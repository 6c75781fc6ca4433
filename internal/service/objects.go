package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"topoview/internal/codec"
	"topoview/internal/domain"
)

// Scanner discovers inventory objects on the network
type Scanner interface {
	Scan(ctx context.Context, targets []string) ([]domain.ObjectRef, error)
}

// ListObjects returns the stored inventory objects
func (s *ViewService) ListObjects(ctx context.Context) ([]domain.ObjectRef, error) {
	return s.repo.ListObjects(ctx)
}

// StoreObjects upserts inventory objects
func (s *ViewService) StoreObjects(ctx context.Context, refs []domain.ObjectRef) error {
	if len(refs) == 0 {
		return nil
	}
	for _, ref := range refs {
		if ref.ID <= 0 || ref.ClassName == "" {
			return fmt.Errorf("object %d: id and class are required", ref.ID)
		}
	}
	return s.repo.UpsertObjects(ctx, refs)
}

// Discover scans targets and stores every object found
func (s *ViewService) Discover(ctx context.Context, scanner Scanner, targets []string) ([]domain.ObjectRef, error) {
	refs, err := scanner.Scan(ctx, targets)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	if err := s.StoreObjects(ctx, refs); err != nil {
		return nil, err
	}

	s.metrics.RecordDiscovered(len(refs))
	s.bus.Publish(Event{Type: EventObjectsDiscovered, Payload: map[string]int{"count": len(refs)}})
	s.logger.Info("discovery complete", zap.Strings("targets", targets), zap.Int("objects", len(refs)))
	return refs, nil
}

// objectResolver snapshots the stored objects for a restore. Restores run on
// the dispatch goroutine and must not wait on the database.
func (s *ViewService) objectResolver(ctx context.Context) (codec.ObjectResolver, error) {
	refs, err := s.repo.ListObjects(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.ObjectRef, len(refs))
	for _, ref := range refs {
		byID[ref.ID] = ref
	}
	return codec.ObjectResolverFunc(func(className string, id int64) (domain.ObjectRef, error) {
		ref, ok := byID[id]
		if !ok || ref.ClassName != className {
			return domain.ObjectRef{}, fmt.Errorf("%w: %s#%d", codec.ErrObjectNotFound, className, id)
		}
		return ref, nil
	}), nil
}
