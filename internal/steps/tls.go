package steps

import (
	"fmt"
	"strings"

	"github.com/wpforge/wpforge/internal/config"
	"github.com/wpforge/wpforge/internal/core"
	"github.com/wpforge/wpforge/internal/netcheck"
)

func certPath(domain string) string {
	return fmt.Sprintf("/etc/letsencrypt/live/%s/fullchain.pem", domain)
}

// DNSGateStep verifies the domain resolves to this host's public IP before
// any certificate is requested. A mismatch fails the plan with a
// descriptive reason; certbot is never invoked for a domain that points
// elsewhere.
type DNSGateStep struct {
	core.BaseStep
	Site    config.SiteConfig
	Checker *netcheck.Checker
}

func NewDNSGateStep(site config.SiteConfig, checker *netcheck.Checker) *DNSGateStep {
	return &DNSGateStep{
		BaseStep: core.BaseStep{StepName: "verify-dns", StepPhase: core.PhaseTLS},
		Site:     site,
		Checker:  checker,
	}
}

func (s *DNSGateStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	// A certificate already issued for this domain means the gate has
	// passed before.
	_, err := ctx.FS().Stat(certPath(s.Site.Domain))
	return err == nil, nil
}

// Apply is a no-op: the gate's entire job is the verification below.
func (s *DNSGateStep) Apply(ctx *core.ProvisionContext) error {
	return nil
}

func (s *DNSGateStep) Verify(ctx *core.ProvisionContext) error {
	if ctx.Facts.PublicIP == "" {
		ip, err := s.Checker.PublicIP(ctx)
		if err != nil {
			return err
		}
		ctx.Facts.PublicIP = ip
	}

	match, addrs, err := s.Checker.DomainPointsTo(ctx, s.Site.Domain, ctx.Facts.PublicIP)
	if err != nil {
		return err
	}
	if !match {
		return &core.PreconditionError{
			Step: s.Name(),
			Reason: fmt.Sprintf("%s resolves to %s but this host's public IP is %s; update the DNS A record before requesting a certificate",
				s.Site.Domain, strings.Join(addrs, ", "), ctx.Facts.PublicIP),
		}
	}
	return nil
}

// CertbotStep obtains and installs a certificate for the domain and its www
// alias through the apache plugin.
type CertbotStep struct {
	core.BaseStep
	Site config.SiteConfig
}

func NewCertbotStep(site config.SiteConfig) *CertbotStep {
	return &CertbotStep{
		BaseStep: core.BaseStep{StepName: "obtain-certificate", StepPhase: core.PhaseTLS},
		Site:     site,
	}
}

func (s *CertbotStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	_, err := ctx.FS().Stat(certPath(s.Site.Domain))
	return err == nil, nil
}

func (s *CertbotStep) Apply(ctx *core.ProvisionContext) error {
	cmd := fmt.Sprintf("certbot --apache --non-interactive --agree-tos --redirect -m %s -d %s -d www.%s",
		s.Site.AdminEmail, s.Site.Domain, s.Site.Domain)
	_, err := ctx.Runner.MustRun(ctx, cmd)
	return err
}

func (s *CertbotStep) Verify(ctx *core.ProvisionContext) error {
	if _, err := ctx.FS().Stat(certPath(s.Site.Domain)); err != nil {
		return fmt.Errorf("certificate for %s not found after certbot run: %w", s.Site.Domain, err)
	}
	return nil
}
