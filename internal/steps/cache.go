package steps

import (
	"fmt"
	"strings"

	"github.com/wpforge/wpforge/internal/core"
)

// CacheServiceStep enables and starts the memcached object cache used by
// WordPress.
type CacheServiceStep struct {
	core.BaseStep
	Service string
}

func NewCacheServiceStep() *CacheServiceStep {
	return &CacheServiceStep{
		BaseStep: core.BaseStep{StepName: "enable-object-cache", StepPhase: core.PhaseWeb},
		Service:  "memcached",
	}
}

func (s *CacheServiceStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	res, err := ctx.Runner.Run(ctx, fmt.Sprintf("systemctl is-active %s", s.Service))
	if err != nil {
		return false, err
	}
	return res.Ok() && strings.TrimSpace(res.Stdout) == "active", nil
}

func (s *CacheServiceStep) Apply(ctx *core.ProvisionContext) error {
	_, err := ctx.Runner.MustRun(ctx, fmt.Sprintf("systemctl enable --now %s", s.Service))
	return err
}

func (s *CacheServiceStep) Verify(ctx *core.ProvisionContext) error {
	res, err := ctx.Runner.MustRun(ctx, fmt.Sprintf("systemctl is-active %s", s.Service))
	if err != nil {
		return err
	}
	if strings.TrimSpace(res.Stdout) != "active" {
		return fmt.Errorf("%s did not start", s.Service)
	}
	return nil
}
