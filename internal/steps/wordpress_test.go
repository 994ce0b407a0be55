package steps_test

import (
	"strings"
	"testing"

	"github.com/wpforge/wpforge/internal/config"
	"github.com/wpforge/wpforge/internal/netcheck"
	"github.com/wpforge/wpforge/internal/secrets"
	"github.com/wpforge/wpforge/internal/steps"
)

const testSalts = `define( 'AUTH_KEY', 'test-auth-key' );
define( 'SECURE_AUTH_KEY', 'test-secure-key' );`

func seedSalts(t *testing.T, store *secrets.Store, domain string) {
	t.Helper()
	_, err := store.GenerateOnceWith(secrets.SaltsKey(domain), func() (string, error) {
		return testSalts, nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDeployWordPress_DownloadsAndUnpacks(t *testing.T) {
	pc, mock := newPC(t)
	step := steps.NewDeployWordPressStep(testSite(), config.DefaultWPTarball)

	ok, err := step.Precondition(pc)
	if err != nil || ok {
		t.Fatalf("empty site root reported deployed (ok=%v err=%v)", ok, err)
	}

	if err := step.Apply(pc); err != nil {
		t.Fatal(err)
	}
	if !mock.AssertCalled("curl -fsSL " + config.DefaultWPTarball) {
		t.Error("tarball not downloaded")
	}
	if !mock.AssertCalled("--strip-components=1") {
		t.Error("archive not unpacked into the site root")
	}

	// The mock never creates files, so verification must catch the gap.
	if err := step.Verify(pc); err == nil {
		t.Error("verify passed without wp-settings.php")
	}
	mock.FS().WriteFile("/var/www/vhosts/example.com/wp-settings.php", []byte("<?php"), 0o644)
	if err := step.Verify(pc); err != nil {
		t.Errorf("verify failed after unpack: %v", err)
	}
}

func TestWPConfig_RendersCredentialsAndSalts(t *testing.T) {
	pc, mock := newPC(t)
	store := newStore(t, pc)
	seedSalts(t, store, "example.com")

	step := steps.NewWPConfigStep(testSite(), store, netcheck.NewChecker(), config.DefaultSaltsURL)

	if err := step.Apply(pc); err != nil {
		t.Fatal(err)
	}

	data, err := mock.FS().ReadFile("/var/www/vhosts/example.com/wp-config.php")
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{
		"define( 'DB_NAME', 'wp_db' )",
		"define( 'DB_USER', 'wp_user' )",
		"define( 'DB_PASSWORD', 'wp_pass_123' )",
		"test-auth-key",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("wp-config.php missing %q", want)
		}
	}

	info, err := mock.FS().Stat("/var/www/vhosts/example.com/wp-config.php")
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o640 {
		t.Errorf("wp-config.php mode %o, want 640", perm)
	}

	// Now satisfied: same credentials in place.
	ok, err := step.Precondition(pc)
	if err != nil || !ok {
		t.Errorf("written config not recognized (ok=%v err=%v)", ok, err)
	}
	if err := step.Verify(pc); err != nil {
		t.Error(err)
	}
}

func TestWPConfig_ReappliesOnCredentialChange(t *testing.T) {
	pc, _ := newPC(t)
	store := newStore(t, pc)
	seedSalts(t, store, "example.com")

	site := testSite()
	step := steps.NewWPConfigStep(site, store, netcheck.NewChecker(), config.DefaultSaltsURL)
	if err := step.Apply(pc); err != nil {
		t.Fatal(err)
	}

	site.DBPass = "rotated_pass"
	changed := steps.NewWPConfigStep(site, store, netcheck.NewChecker(), config.DefaultSaltsURL)
	ok, err := changed.Precondition(pc)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("stale credentials reported as satisfied")
	}
}

func TestPermissions_HandsTreeToWebServer(t *testing.T) {
	pc, mock := newPC(t)
	step := steps.NewPermissionsStep(testSite())

	ok, err := step.Precondition(pc)
	if err != nil || ok {
		t.Fatalf("root-owned tree reported as handed over (ok=%v err=%v)", ok, err)
	}

	if err := step.Apply(pc); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"chown -R www-data:www-data /var/www/vhosts/example.com",
		"-type d -exec chmod 755",
		"-type f -exec chmod 644",
		"chmod 640 /var/www/vhosts/example.com/wp-config.php",
	} {
		if !mock.AssertCalled(want) {
			t.Errorf("missing command %q", want)
		}
	}

	mock.AddResponse("stat -c %U", "www-data\n")
	if err := step.Verify(pc); err != nil {
		t.Fatal(err)
	}
}

func TestLocalSaltsViaStoreFallback(t *testing.T) {
	pc, _ := newPC(t)
	store := newStore(t, pc)

	// Unreachable salts endpoint forces the local generator.
	checker := netcheck.NewChecker()
	step := steps.NewWPConfigStep(testSite(), store, checker, "http://127.0.0.1:0/salt")

	if err := step.Apply(pc); err != nil {
		t.Fatal(err)
	}
	salts, err := store.Lookup(secrets.SaltsKey("example.com"))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"AUTH_KEY", "NONCE_SALT"} {
		if !strings.Contains(salts, key) {
			t.Errorf("locally generated salts missing %s", key)
		}
	}
}
