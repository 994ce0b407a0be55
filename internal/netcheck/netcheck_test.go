package netcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeResolver map[string][]string

func (f fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	addrs, ok := f[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	return addrs, nil
}

func testChecker(srv *httptest.Server, resolver Resolver) *Checker {
	c := NewChecker()
	if srv != nil {
		c.HTTPClient = srv.Client()
		c.IPEndpoint = srv.URL
	}
	if resolver != nil {
		c.Resolver = resolver
	}
	return c
}

func TestPublicIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("203.0.113.10\n"))
	}))
	defer srv.Close()

	ip, err := testChecker(srv, nil).PublicIP(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ip != "203.0.113.10" {
		t.Errorf("ip %q", ip)
	}
}

func TestPublicIP_RejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>blocked</html>"))
	}))
	defer srv.Close()

	if _, err := testChecker(srv, nil).PublicIP(context.Background()); err == nil {
		t.Fatal("non-IP body accepted")
	}
}

func TestPublicIP_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := testChecker(srv, nil).PublicIP(context.Background()); err == nil {
		t.Fatal("503 accepted")
	}
}

func TestDomainPointsTo(t *testing.T) {
	resolver := fakeResolver{
		"example.com": {"203.0.113.10"},
		"stale.com":   {"198.51.100.7", "198.51.100.8"},
	}
	c := testChecker(nil, resolver)
	ctx := context.Background()

	ok, _, err := c.DomainPointsTo(ctx, "example.com", "203.0.113.10")
	if err != nil || !ok {
		t.Fatalf("matching domain reported as mismatch (err %v)", err)
	}

	ok, addrs, err := c.DomainPointsTo(ctx, "stale.com", "203.0.113.10")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("mismatched domain reported as pointing here")
	}
	if len(addrs) != 2 {
		t.Errorf("resolved addresses not returned: %v", addrs)
	}

	if _, _, err := c.DomainPointsTo(ctx, "missing.example", "203.0.113.10"); err == nil {
		t.Error("NXDOMAIN not surfaced")
	}
}

func TestFetchSalts(t *testing.T) {
	const salts = "define('AUTH_KEY', 'abc');\ndefine('SECURE_AUTH_KEY', 'def');"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(salts + "\n"))
	}))
	defer srv.Close()

	c := testChecker(srv, nil)
	got, err := c.FetchSalts(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if got != salts {
		t.Errorf("salts %q", got)
	}
}

func TestFetchSalts_RejectsUnexpectedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	c := testChecker(srv, nil)
	if _, err := c.FetchSalts(context.Background(), srv.URL); err == nil {
		t.Fatal("body without AUTH_KEY accepted")
	}
}
