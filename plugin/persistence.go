package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/simplecore-inc/stageflow/core"
)

// SnapshotVersion identifies the persisted envelope format. Bump on breaking
// changes to Snapshot.
const SnapshotVersion = 1

// Snapshot is the persisted-state envelope: the committed stage, the payload
// serialized as JSON, and enough metadata to reject incompatible restores.
// The format is owned by this plugin; the engine has no file format of its
// own.
type Snapshot struct {
	Stage     string          `json:"stage"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Version   int             `json:"version"`
}

// SnapshotStore persists one snapshot per flow. Implementations must be safe
// for concurrent use; Save replaces any previous snapshot.
type SnapshotStore interface {
	Save(snap Snapshot) error
	Load() (Snapshot, bool, error)
}

// MemoryStore is a volatile SnapshotStore keeping the latest snapshot in
// memory. Best suited for tests and ephemeral demos.
type MemoryStore struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewMemoryStore constructs an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Save replaces the stored snapshot.
func (s *MemoryStore) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = &snap
	return nil
}

// Load returns the stored snapshot, false when none has been saved.
func (s *MemoryStore) Load() (Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return Snapshot{}, false, nil
	}
	return *s.snap, true, nil
}

// FileStore persists the snapshot as a JSON document on disk. Writes go
// through a temp file and rename so a crash mid-write never leaves a torn
// snapshot.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

// Save writes the snapshot to disk.
func (s *FileStore) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot from disk, false when the file does not exist.
func (s *FileStore) Load() (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// Persistence is the reference persistence plugin. It saves a snapshot after
// every committed transition and restores the last one through the engine's
// own navigation path — a restore is an ordinary GoToWithData and must
// traverse a declared rule like any other move.
type Persistence[D any] struct {
	store  SnapshotStore
	handle core.EngineHandle[D]
	unsub  core.UnsubscribeFunc
}

// NewPersistence creates the persistence plugin backed by store.
func NewPersistence[D any](store SnapshotStore) *Persistence[D] {
	return &Persistence[D]{store: store}
}

// Name implements core.Plugin.
func (p *Persistence[D]) Name() string { return "persistence" }

// Version implements core.Versioner.
func (p *Persistence[D]) Version() string { return fmt.Sprintf("v%d", SnapshotVersion) }

// Install subscribes to committed transitions and saves a snapshot for each.
func (p *Persistence[D]) Install(_ context.Context, h core.EngineHandle[D]) error {
	if p.store == nil {
		return errors.New("snapshot store must not be nil")
	}
	p.handle = h
	p.unsub = h.Subscribe(func(stage core.StageName, data D) {
		if err := p.save(stage, data); err != nil {
			h.Logger().Warn("snapshot save failed", "stage", stage.String(), "error", err)
		}
	})
	return nil
}

// Uninstall drops the subscription.
func (p *Persistence[D]) Uninstall() error {
	if p.unsub != nil {
		p.unsub()
	}
	return nil
}

func (p *Persistence[D]) save(stage core.StageName, data D) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	return p.store.Save(Snapshot{
		Stage:     stage.String(),
		Data:      raw,
		Timestamp: time.Now(),
		Version:   SnapshotVersion,
	})
}

// SaveNow snapshots the current (stage, data) pair immediately, outside the
// subscription path. Useful before the application shuts down, since
// SetStageData changes are otherwise not captured until the next transition.
func (p *Persistence[D]) SaveNow() error {
	if p.handle == nil {
		return errors.New("plugin not installed")
	}
	return p.save(p.handle.CurrentStage(), p.handle.CurrentData())
}

// Restore loads the last snapshot and navigates the engine to it. It returns
// false without error when no snapshot exists. Restoring fails when the
// envelope version is unknown, the payload does not decode, or no declared
// rule leads from the current stage to the persisted one.
func (p *Persistence[D]) Restore(ctx context.Context) (bool, error) {
	if p.handle == nil {
		return false, errors.New("plugin not installed")
	}

	snap, ok, err := p.store.Load()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if snap.Version != SnapshotVersion {
		return false, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	var data D
	if err := json.Unmarshal(snap.Data, &data); err != nil {
		return false, fmt.Errorf("decode snapshot data: %w", err)
	}
	if err := p.handle.GoToWithData(ctx, core.StageName(snap.Stage), data); err != nil {
		return false, fmt.Errorf("navigate to persisted stage: %w", err)
	}
	return true, nil
}
