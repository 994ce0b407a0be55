package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wpforge/wpforge/internal/core"
)

// FileSystem is the minimum filesystem surface the manager needs. It matches
// core.FileSystem so the transport's filesystem can be passed directly.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

// Manager persists the run record for one plan as a JSON file. It implements
// core.RunRecorder. A Mutex guards the in-memory copy; cross-process
// exclusion is the lock file's job.
type Manager struct {
	Path    string
	Current *Run
	FS      FileSystem
	mu      sync.RWMutex
}

var _ core.RunRecorder = (*Manager)(nil)

// NewManager creates a manager for the record at path, loading an existing
// record if one is present.
func NewManager(path string, fsys FileSystem) (*Manager, error) {
	m := &Manager{Path: path, FS: fsys}
	if err := m.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load run record %s: %w", path, err)
	}
	return m, nil
}

// Load reads the record from disk. fs.ErrNotExist means no previous run.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.FS.ReadFile(m.Path)
	if err != nil {
		return err
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return fmt.Errorf("corrupt run record: %w", err)
	}
	m.Current = &run
	return nil
}

func (m *Manager) save() error {
	m.Current.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(m.Current, "", "  ")
	if err != nil {
		return err
	}

	if err := m.FS.MkdirAll(filepath.Dir(m.Path), 0o755); err != nil {
		return err
	}
	return m.FS.WriteFile(m.Path, data, 0o644)
}

// Begin opens or resumes the record for the named plan. Done statuses from a
// previous run survive; a step left running by an interrupted run is reset
// to pending and will re-run.
func (m *Manager) Begin(plan string, stepNames []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := make(map[string]StepRecord)
	if m.Current != nil && m.Current.Plan == plan {
		for _, s := range m.Current.Steps {
			prev[s.Name] = s
		}
	}

	run := &Run{
		ID:        uuid.New().String(),
		Plan:      plan,
		Status:    "running",
		StartedAt: time.Now(),
		Steps:     make([]StepRecord, 0, len(stepNames)),
	}

	for _, name := range stepNames {
		rec := StepRecord{Name: name, Status: core.StatusPending}
		if old, ok := prev[name]; ok && old.Status == core.StatusDone {
			rec = old
		}
		run.Steps = append(run.Steps, rec)
	}

	m.Current = run
	return m.save()
}

// Status returns the recorded status for a step, pending when unknown.
func (m *Manager) Status(stepName string) core.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Current == nil {
		return core.StatusPending
	}
	if rec, ok := m.Current.Step(stepName); ok {
		return rec.Status
	}
	return core.StatusPending
}

// SetStatus records a step transition and persists immediately, so a crash
// between steps loses at most the step in flight.
func (m *Manager) SetStatus(stepName string, status core.Status, stepErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Current == nil {
		return fmt.Errorf("no active run")
	}
	rec, ok := m.Current.Step(stepName)
	if !ok {
		return fmt.Errorf("step %q not in run record", stepName)
	}

	now := time.Now()
	switch status {
	case core.StatusRunning:
		rec.StartedAt = &now
	case core.StatusDone, core.StatusFailed, core.StatusSkipped:
		rec.FinishedAt = &now
	}
	rec.Status = status
	rec.Error = ""
	if stepErr != nil {
		rec.Error = stepErr.Error()
	}
	return m.save()
}

// Finish closes the record with the overall outcome.
func (m *Manager) Finish(failed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Current == nil {
		return fmt.Errorf("no active run")
	}
	if failed {
		m.Current.Status = "failed"
	} else {
		m.Current.Status = "success"
	}
	return m.save()
}

// Discard removes any loaded record so the next Begin starts fresh.
func (m *Manager) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Current = nil
}
