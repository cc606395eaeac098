package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	store "github.com/goliatone/go-store"
	"github.com/goliatone/go-store/layering"
	"github.com/google/uuid"
)

// Hydrator moves snapshots between a store and a persistence Store.
type Hydrator struct {
	Store Store[store.State]
	// Now stamps Meta.UpdatedAt; time.Now when nil.
	Now func() time.Time
}

// Capture saves a deep copy of the store state under ref with a fresh
// snapshot id. When meta.ETag is set it must match the persisted ETag.
func (h Hydrator) Capture(ctx context.Context, s *store.Store, ref Ref, meta Meta) (Meta, error) {
	if h.Store == nil {
		return Meta{}, fmt.Errorf("state: store is required")
	}
	if s == nil {
		return Meta{}, fmt.Errorf("state: source store is nil")
	}
	if _, err := ref.Identifier(); err != nil {
		return Meta{}, err
	}

	_, loaded, ok, err := h.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, fmt.Errorf("state: load %q: %w", ref.Domain, err)
	}
	if ok && meta.ETag != "" && loaded.ETag != "" && meta.ETag != loaded.ETag {
		return loaded, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loaded.ETag)
	}

	snapshot := s.Snapshot()
	etag, err := digest(snapshot)
	if err != nil {
		return Meta{}, fmt.Errorf("state: digest %q: %w", ref.Domain, err)
	}

	next := mergeMeta(loaded, meta)
	next.SnapshotID = uuid.NewString()
	next.ETag = etag
	next.UpdatedAt = h.now()

	saved, err := h.Store.Save(ctx, ref, snapshot, next)
	if err != nil {
		return Meta{}, fmt.Errorf("state: save %q: %w", ref.Domain, err)
	}
	return saved, nil
}

// Restore loads the snapshot under ref and replaces the store state with the
// snapshot merged over the live state. It reports false when nothing was
// persisted.
func (h Hydrator) Restore(ctx context.Context, s *store.Store, ref Ref) (Meta, bool, error) {
	if h.Store == nil {
		return Meta{}, false, fmt.Errorf("state: store is required")
	}
	if s == nil {
		return Meta{}, false, fmt.Errorf("state: target store is nil")
	}

	snapshot, meta, ok, err := h.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, false, fmt.Errorf("state: load %q: %w", ref.Domain, err)
	}
	if !ok {
		return Meta{}, false, nil
	}

	s.ReplaceState(layering.MergeLayers(snapshot, s.Snapshot()))
	return meta, true, nil
}

// Plugin restores ref when the store is constructed. Failures go to onError
// when set.
func (h Hydrator) Plugin(ref Ref, onError func(error)) store.Plugin {
	return func(s *store.Store) {
		if _, _, err := h.Restore(context.Background(), s, ref); err != nil && onError != nil {
			onError(err)
		}
	}
}

func (h Hydrator) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// digest hashes the JSON encoding of the snapshot. Map keys are encoded in
// sorted order, so equal trees share an ETag.
func digest(snapshot store.State) (string, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:16]), nil
}
