// Package state persists and restores store snapshots.
//
// The store engine keeps no data of its own. A Hydrator captures
// store.Snapshot() into a Store[store.State] under a Ref and restores it later
// by merging the persisted tree over the live state, so modules registered
// after the snapshot was taken keep their initial state.
//
// Data flow:
//
//	store.Snapshot -> Hydrator.Capture -> Store.Save
//	Store.Load -> layering.MergeLayers(persisted, live) -> store.ReplaceState
//
// Meta.ETag guards captures against concurrent writers: a capture that names
// an ETag fails with ErrETagMismatch when the persisted snapshot moved on.
package state
