package core_test

import (
	"testing"

	"github.com/wpforge/wpforge/internal/core"
)

func TestEvaluateCondition(t *testing.T) {
	pc := newTestContext(t)
	pc.Facts.OS = "linux"
	pc.Facts.Distro = "ubuntu"
	pc.Facts.Version = "24.04"
	pc.Vars["enable_waf"] = true

	cases := []struct {
		expr string
		want bool
	}{
		{`distro == "ubuntu"`, true},
		{`distro in ["ubuntu", "debian"]`, true},
		{`distro == "arch"`, false},
		{`os == "linux" && version == "24.04"`, true},
		{`vars.enable_waf`, true},
		{`!dry_run`, true},
	}
	for _, tc := range cases {
		got, err := core.EvaluateCondition(tc.expr, pc)
		if err != nil {
			t.Errorf("%s: %v", tc.expr, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluateCondition_RejectsNonBoolean(t *testing.T) {
	if _, err := core.EvaluateCondition(`distro`, newTestContext(t)); err == nil {
		t.Error("string-valued expression accepted")
	}
}

func TestEvaluateCondition_RejectsBadSyntax(t *testing.T) {
	if _, err := core.EvaluateCondition(`distro ==`, newTestContext(t)); err == nil {
		t.Error("malformed expression accepted")
	}
}
