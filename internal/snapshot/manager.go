package snapshot

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrNotInitialized = errors.New("snapshot: manager not initialized")

// Manager owns the undo and redo stacks.
//
// The bottom of the undo stack is the session baseline and is never popped,
// so Undo needs at least two entries. Undo pushes the live state on the redo
// stack before restoring; Checkpoint clears the redo stack.
type Manager struct {
	fs     afero.Fs
	root   string
	target Stateful
	blobs  *BlobStore
	logger *zap.Logger

	undo []*Snapshot
	redo []*Snapshot

	// maxDepth caps the number of undo steps; 0 means unbounded.
	maxDepth int
	now      func() time.Time
}

type Option func(*Manager)

func WithMaxDepth(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxDepth = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func NewManager(fs afero.Fs, root string, target Stateful, opts ...Option) *Manager {
	m := &Manager{
		fs:     fs,
		root:   filepath.Clean(root),
		target: target,
		blobs:  NewBlobStore(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init drops any history and records the current state as the baseline.
func (m *Manager) Init() error {
	m.clear()
	snap, err := m.capture()
	if err != nil {
		return fmt.Errorf("snapshot: init: %w", err)
	}
	m.undo = append(m.undo, snap)
	return nil
}

// Checkpoint captures the pre-mutation state, pushes it on the undo stack and
// clears the redo stack.
func (m *Manager) Checkpoint() (*Snapshot, error) {
	if len(m.undo) == 0 {
		return nil, ErrNotInitialized
	}
	snap, err := m.capture()
	if err != nil {
		return nil, fmt.Errorf("snapshot: checkpoint: %w", err)
	}
	for _, s := range m.redo {
		m.release(s)
	}
	m.redo = nil
	m.undo = append(m.undo, snap)
	m.trim()

	m.logger.Debug("snapshot: checkpoint",
		zap.String("id", snap.ID.String()),
		zap.Int("files", snap.FileCount()),
		zap.Int("depth", m.Depth()),
		zap.Int("blobs", m.blobs.Len()),
	)
	return snap, nil
}

// Undo restores the most recent checkpoint. It reports false when only the
// baseline is left.
func (m *Manager) Undo() (bool, error) {
	if !m.CanUndo() {
		return false, nil
	}
	live, err := m.capture()
	if err != nil {
		return false, fmt.Errorf("snapshot: undo: %w", err)
	}
	target := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, live)

	err = m.apply(target)
	m.release(target)
	if err != nil {
		return true, fmt.Errorf("snapshot: undo: %w", err)
	}
	return true, nil
}

// Redo re-applies the state most recently undone.
func (m *Manager) Redo() (bool, error) {
	if !m.CanRedo() {
		return false, nil
	}
	live, err := m.capture()
	if err != nil {
		return false, fmt.Errorf("snapshot: redo: %w", err)
	}
	target := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, live)
	m.trim()

	err = m.apply(target)
	m.release(target)
	if err != nil {
		return true, fmt.Errorf("snapshot: redo: %w", err)
	}
	return true, nil
}

func (m *Manager) CanUndo() bool { return len(m.undo) > 1 }
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Depth is the number of undo steps available.
func (m *Manager) Depth() int {
	if len(m.undo) == 0 {
		return 0
	}
	return len(m.undo) - 1
}

// RedoDepth is the number of redo steps available.
func (m *Manager) RedoDepth() int { return len(m.redo) }

// Blobs exposes the content store, mostly for inspection in tests.
func (m *Manager) Blobs() *BlobStore { return m.blobs }

func (m *Manager) capture() (*Snapshot, error) {
	files, err := m.captureTree()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:      uuid.New(),
		TakenAt: m.now(),
		State:   cloneState(m.target.CaptureState()),
		Files:   files,
	}, nil
}

// apply restores the file tree, then the in-memory state. Both halves are
// attempted even if the first one fails.
func (m *Manager) apply(s *Snapshot) error {
	err := m.restoreTree(s.Files)
	return multierr.Append(err, m.target.RestoreState(cloneState(s.State)))
}

// trim drops the oldest entries beyond maxDepth; the oldest kept entry
// becomes the new baseline.
func (m *Manager) trim() {
	if m.maxDepth <= 0 {
		return
	}
	for len(m.undo) > m.maxDepth+1 {
		m.release(m.undo[0])
		m.undo[0] = nil
		m.undo = m.undo[1:]
	}
}

func (m *Manager) release(s *Snapshot) {
	if s != nil {
		m.releaseFiles(s.Files)
	}
}

func (m *Manager) clear() {
	for _, s := range m.undo {
		m.release(s)
	}
	for _, s := range m.redo {
		m.release(s)
	}
	m.undo, m.redo = nil, nil
}
