package core_test

import (
	"context"
	"strings"
	"testing"

	"github.com/wpforge/wpforge/internal/core"
	"github.com/wpforge/wpforge/internal/transport"
)

func TestExecuteTemplate(t *testing.T) {
	out, err := core.ExecuteTemplate("ServerName {{ .Domain }}", map[string]string{"Domain": "example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "ServerName example.com" {
		t.Errorf("rendered %q", out)
	}
}

func TestExecuteTemplate_SprigFunctions(t *testing.T) {
	out, err := core.ExecuteTemplate(`{{ .Domain | upper }} {{ .Missing | default "fallback" }}`,
		map[string]string{"Domain": "example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "EXAMPLE.COM") || !strings.Contains(out, "fallback") {
		t.Errorf("rendered %q", out)
	}
}

func TestExecuteTemplate_BadSyntax(t *testing.T) {
	if _, err := core.ExecuteTemplate("{{ .Broken", nil); err == nil {
		t.Error("malformed template accepted")
	}
}

func TestGenerateDiff(t *testing.T) {
	diff := core.GenerateDiff("/etc/example.conf",
		"line one\nline two\n",
		"line one\nline changed\n")

	if !strings.Contains(diff, "--- /etc/example.conf") {
		t.Error("diff header missing")
	}
	if !strings.Contains(diff, "- line two") {
		t.Error("removed line not marked")
	}
	if !strings.Contains(diff, "+ line changed") {
		t.Error("added line not marked")
	}
	if !strings.Contains(diff, "  line one") {
		t.Error("unchanged line not preserved as context")
	}
}

func TestDetectFacts(t *testing.T) {
	mock := transport.NewMockTransport()
	mock.AddResponse("cat /etc/os-release", "NAME=\"Ubuntu\"\nID=ubuntu\nVERSION_ID=\"24.04\"\n")
	mock.AddResponse("hostname", "web01\n")
	pc := core.NewProvisionContext(context.Background(), mock)

	core.DetectFacts(pc)
	if pc.Facts.OS != "linux" {
		t.Errorf("os %q", pc.Facts.OS)
	}
	if pc.Facts.Distro != "ubuntu" {
		t.Errorf("distro %q", pc.Facts.Distro)
	}
	if pc.Facts.Version != "24.04" {
		t.Errorf("version %q", pc.Facts.Version)
	}
	if pc.Facts.Hostname != "web01" {
		t.Errorf("hostname %q", pc.Facts.Hostname)
	}
}
