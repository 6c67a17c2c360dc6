// Package snapshot captures the catalog, the navigation pointers and the
// whole storage tree before each mutating command, and restores any capture
// for undo/redo.
//
// Every checkpoint walks the full tree, which is O(tree size) per command.
// File contents go through a content-addressed BlobStore, so unchanged files
// cost one hash and no extra memory.
package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/tuannm99/flatsql/internal/catalog"
)

// State is the in-memory half of a snapshot. Database and Table hold the
// names of the open objects ("" when none); pointers are re-resolved by name
// on restore.
type State struct {
	Catalog  *catalog.Catalog
	Level    catalog.Level
	Database string
	Table    string
}

// Stateful is implemented by the session whose state is snapshotted.
// CaptureState may return shared memory; the Manager clones it.
type Stateful interface {
	CaptureState() State
	RestoreState(State) error
}

// Entry is one path of the captured tree. Directories carry no content.
type Entry struct {
	Dir  bool
	Blob BlobKey
}

// Snapshot is immutable once taken. Files is keyed by slash-separated path
// relative to the storage root.
type Snapshot struct {
	ID      uuid.UUID
	TakenAt time.Time
	State   State
	Files   map[string]Entry
}

// FileCount returns the number of regular files in the snapshot.
func (s *Snapshot) FileCount() int {
	n := 0
	for _, e := range s.Files {
		if !e.Dir {
			n++
		}
	}
	return n
}

func cloneState(st State) State {
	st.Catalog = st.Catalog.Clone()
	return st
}
