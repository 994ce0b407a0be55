package state_test

import (
	"errors"
	"testing"

	"github.com/wpforge/wpforge/internal/core"
	"github.com/wpforge/wpforge/internal/state"
	"github.com/wpforge/wpforge/internal/transport"
)

const recordPath = "/var/lib/wpforge/runs/install.json"

func newManager(t *testing.T, fsys state.FileSystem) *state.Manager {
	t.Helper()
	m, err := state.NewManager(recordPath, fsys)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestManager_BeginPersistsRecord(t *testing.T) {
	fsys := transport.NewMemFS()
	m := newManager(t, fsys)

	if err := m.Begin("install", []string{"upgrade", "firewall"}); err != nil {
		t.Fatal(err)
	}

	if _, err := fsys.ReadFile(recordPath); err != nil {
		t.Fatalf("record not written: %v", err)
	}
	if m.Status("upgrade") != core.StatusPending {
		t.Error("fresh step not pending")
	}
	if m.Current.ID == "" {
		t.Error("run has no id")
	}
}

func TestManager_SetStatusSurvivesReload(t *testing.T) {
	fsys := transport.NewMemFS()
	m := newManager(t, fsys)

	if err := m.Begin("install", []string{"upgrade", "firewall"}); err != nil {
		t.Fatal(err)
	}
	if err := m.SetStatus("upgrade", core.StatusDone, nil); err != nil {
		t.Fatal(err)
	}
	if err := m.SetStatus("firewall", core.StatusFailed, errors.New("ufw missing")); err != nil {
		t.Fatal(err)
	}

	// A new manager, as on the next invocation, sees the persisted statuses.
	m2 := newManager(t, fsys)
	if m2.Status("upgrade") != core.StatusDone {
		t.Error("done status lost across reload")
	}
	rec, ok := m2.Current.Step("firewall")
	if !ok || rec.Status != core.StatusFailed {
		t.Fatal("failed status lost across reload")
	}
	if rec.Error != "ufw missing" {
		t.Errorf("step error %q not persisted", rec.Error)
	}
}

func TestManager_BeginResumesDoneSteps(t *testing.T) {
	fsys := transport.NewMemFS()
	m := newManager(t, fsys)

	if err := m.Begin("install", []string{"upgrade", "firewall", "vhost"}); err != nil {
		t.Fatal(err)
	}
	m.SetStatus("upgrade", core.StatusDone, nil)
	m.SetStatus("firewall", core.StatusRunning, nil) // interrupted mid-step
	m.Finish(true)

	m2 := newManager(t, fsys)
	if err := m2.Begin("install", []string{"upgrade", "firewall", "vhost"}); err != nil {
		t.Fatal(err)
	}
	if m2.Status("upgrade") != core.StatusDone {
		t.Error("completed step lost on resume")
	}
	if m2.Status("firewall") != core.StatusPending {
		t.Error("interrupted step must reset to pending")
	}
	if m2.Status("vhost") != core.StatusPending {
		t.Error("unreached step must stay pending")
	}
}

func TestManager_BeginIgnoresOtherPlans(t *testing.T) {
	fsys := transport.NewMemFS()
	m := newManager(t, fsys)

	m.Begin("install", []string{"upgrade"})
	m.SetStatus("upgrade", core.StatusDone, nil)

	// Same step name under a different plan starts fresh.
	if err := m.Begin("add-site", []string{"upgrade"}); err != nil {
		t.Fatal(err)
	}
	if m.Status("upgrade") != core.StatusPending {
		t.Error("done status leaked across plans")
	}
}

func TestManager_DiscardStartsFresh(t *testing.T) {
	fsys := transport.NewMemFS()
	m := newManager(t, fsys)

	m.Begin("install", []string{"upgrade"})
	m.SetStatus("upgrade", core.StatusDone, nil)

	m.Discard()
	if err := m.Begin("install", []string{"upgrade"}); err != nil {
		t.Fatal(err)
	}
	if m.Status("upgrade") != core.StatusPending {
		t.Error("--fresh run still resumed old record")
	}
}

func TestManager_CorruptRecordRejected(t *testing.T) {
	fsys := transport.NewMemFS()
	fsys.WriteFile(recordPath, []byte("{not json"), 0o644)

	if _, err := state.NewManager(recordPath, fsys); err == nil {
		t.Fatal("corrupt record loaded without error")
	}
}

func TestManager_FinishRecordsOutcome(t *testing.T) {
	fsys := transport.NewMemFS()
	m := newManager(t, fsys)

	m.Begin("install", []string{"upgrade"})
	m.SetStatus("upgrade", core.StatusDone, nil)
	if err := m.Finish(false); err != nil {
		t.Fatal(err)
	}

	m2 := newManager(t, fsys)
	if m2.Current.Status != "success" {
		t.Errorf("run status %q, want success", m2.Current.Status)
	}
}
