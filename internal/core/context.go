package core

import (
	"context"
	"io"
	"os"
)

// Facts holds what we detected about the target host. Step conditions
// (expr expressions) evaluate against these fields.
type Facts struct {
	OS       string // linux, darwin
	Distro   string // ubuntu, debian
	Version  string // 24.04
	Hostname string
	PublicIP string // filled lazily by the DNS gate
}

// ProvisionContext wraps the standard context and carries everything a step
// needs: the transport to the target host, a command runner, logging, and
// the run mode.
type ProvisionContext struct {
	context.Context

	Transport Transport
	Runner    *Runner
	Logger    Logger
	UI        UI
	Facts     Facts

	// Vars feeds template rendering and condition evaluation alongside Facts.
	Vars map[string]any

	// DryRun disables every mutation; steps report what they would change.
	DryRun bool

	// RunLog receives the raw output of every executed command. It backs the
	// plaintext installation log.
	RunLog io.Writer
}

// NewProvisionContext builds a context around the given transport with
// sensible defaults. Callers usually replace Logger and UI afterwards.
func NewProvisionContext(ctx context.Context, t Transport) *ProvisionContext {
	pc := &ProvisionContext{
		Context:   ctx,
		Transport: t,
		Logger:    NewDefaultLogger(os.Stderr, LevelInfo),
		UI:        &NoopUI{},
		Vars:      make(map[string]any),
		RunLog:    io.Discard,
	}
	pc.Runner = NewRunner(t, pc)
	return pc
}

// FS is a shorthand for the transport's filesystem.
func (pc *ProvisionContext) FS() FileSystem {
	return pc.Transport.FileSystem()
}
