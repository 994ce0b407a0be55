package core

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// EvaluateCondition evaluates a step's When expression against the host
// facts and run variables. The expression must produce a boolean, e.g.
// `distro == "ubuntu"` or `vars.enable_waf`.
func EvaluateCondition(condition string, ctx *ProvisionContext) (bool, error) {
	env := map[string]any{
		"os":       ctx.Facts.OS,
		"distro":   ctx.Facts.Distro,
		"version":  ctx.Facts.Version,
		"hostname": ctx.Facts.Hostname,
		"dry_run":  ctx.DryRun,
		"vars":     ctx.Vars,
	}

	program, err := expr.Compile(condition, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("invalid condition %q: %w", condition, err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", condition, err)
	}

	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not evaluate to a boolean", condition)
	}
	return result, nil
}
