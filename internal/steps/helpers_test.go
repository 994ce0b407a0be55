package steps_test

import (
	"context"
	"testing"

	"github.com/wpforge/wpforge/internal/config"
	"github.com/wpforge/wpforge/internal/core"
	"github.com/wpforge/wpforge/internal/secrets"
	"github.com/wpforge/wpforge/internal/transport"
)

func testSite() config.SiteConfig {
	return config.SiteConfig{
		Domain:     "example.com",
		DBName:     "wp_db",
		DBUser:     "wp_user",
		DBPass:     "wp_pass_123",
		AdminEmail: "admin@example.com",
		SiteRoot:   "/var/www/vhosts/example.com",
	}
}

func newPC(t *testing.T) (*core.ProvisionContext, *transport.MockTransport) {
	t.Helper()
	mock := transport.NewMockTransport()
	return core.NewProvisionContext(context.Background(), mock), mock
}

func newStore(t *testing.T, pc *core.ProvisionContext) *secrets.Store {
	t.Helper()
	return secrets.NewStore("/var/lib/wpforge/secrets.json", pc.FS())
}
