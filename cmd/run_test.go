package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/wpforge/wpforge/internal/config"
	"github.com/wpforge/wpforge/internal/core"
)

// recordingUI captures everything rendered through the core.UI interface.
type recordingUI struct {
	core.NoopUI
	lines []string
}

func (r *recordingUI) Section(title string) { r.lines = append(r.lines, "section: "+title) }
func (r *recordingUI) Title(title string)   { r.lines = append(r.lines, "title: "+title) }
func (r *recordingUI) Success(msg string)   { r.lines = append(r.lines, "success: "+msg) }
func (r *recordingUI) Info(msg string)      { r.lines = append(r.lines, "info: "+msg) }
func (r *recordingUI) Error(msg string)     { r.lines = append(r.lines, "error: "+msg) }
func (r *recordingUI) Printf(format string, args ...interface{}) {
	r.lines = append(r.lines, "printf")
}

func (r *recordingUI) contains(fragment string) bool {
	for _, line := range r.lines {
		if strings.Contains(line, fragment) {
			return true
		}
	}
	return false
}

func TestPrintResults_RoutesByStatus(t *testing.T) {
	out := &recordingUI{}
	printResults(out, []core.StepResult{
		{Step: "upgrade", Phase: core.PhasePrep, Status: core.StatusDone, Message: "applied"},
		{Step: "firewall", Phase: core.PhaseSecurity, Status: core.StatusSkipped, Message: "already satisfied"},
		{Step: "vhost", Phase: core.PhaseWeb, Status: core.StatusFailed, Message: "boom"},
	})

	if !out.contains("success: [prep] upgrade") {
		t.Error("done step not rendered as success")
	}
	if !out.contains("info: [security] firewall: skipped") {
		t.Error("skipped step not rendered as info")
	}
	if !out.contains("error: [web] vhost: boom") {
		t.Error("failed step not rendered as error")
	}
}

func TestReportFailure_NamesStepAndLog(t *testing.T) {
	out := &recordingUI{}
	stepErr := &core.StepError{Step: "obtain-certificate", Phase: core.PhaseTLS, Err: errors.New("dns mismatch")}
	reportFailure(out, stepErr, "/var/log/wpforge/install.log")

	if !out.contains("title: FAILED: step obtain-certificate (tls phase)") {
		t.Error("failure banner does not name the step")
	}
	if !out.contains("error: dns mismatch") {
		t.Error("cause not rendered")
	}
	if !out.contains("re-run") {
		t.Error("resume hint missing")
	}
}

func TestConfirmPlan_SkipsPromptWithYes(t *testing.T) {
	c := &cobra.Command{}
	addSiteFlags(c)
	if err := c.Flags().Set("yes", "true"); err != nil {
		t.Fatal(err)
	}

	out := &recordingUI{}
	site := config.SiteConfig{Domain: "example.com", DBName: "wp_db", DBUser: "wp_user", SiteRoot: "/var/www/vhosts/example.com"}
	plan := core.NewPlan("install", &noopStep{core.BaseStep{StepName: "a", StepPhase: core.PhasePrep}})

	if err := confirmPlan(c, out, plan, site); err != nil {
		t.Fatal(err)
	}
	if !out.contains("section: Plan: install") {
		t.Error("plan summary not rendered through the UI")
	}
}

func TestTargetFS_LocalByDefault(t *testing.T) {
	fsys, closeFS, err := targetFS(config.Settings{})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFS()

	if _, ok := fsys.(*core.RealFS); !ok {
		t.Errorf("local target did not yield the local filesystem, got %T", fsys)
	}
}

type noopStep struct {
	core.BaseStep
}

func (s *noopStep) Precondition(ctx *core.ProvisionContext) (bool, error) { return true, nil }
func (s *noopStep) Apply(ctx *core.ProvisionContext) error                { return nil }
