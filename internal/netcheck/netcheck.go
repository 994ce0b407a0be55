// Package netcheck answers the read-only network questions the TLS phase
// depends on: what is this host's public IP, and where does a domain
// resolve to. Both are injectable for tests.
package netcheck

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const publicIPEndpoint = "https://api.ipify.org"

// Resolver is the subset of net.Resolver the checker uses.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Checker performs public IP lookup and DNS resolution.
type Checker struct {
	HTTPClient *http.Client
	Resolver   Resolver
	IPEndpoint string
}

func NewChecker() *Checker {
	return &Checker{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Resolver:   net.DefaultResolver,
		IPEndpoint: publicIPEndpoint,
	}
}

// PublicIP asks the lookup service for this host's public address.
func (c *Checker) PublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.IPEndpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("public IP lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("public IP lookup: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", err
	}
	ip := strings.TrimSpace(string(body))
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("public IP lookup returned %q, not an IP", ip)
	}
	return ip, nil
}

// Resolve returns the addresses the domain currently resolves to.
func (c *Checker) Resolve(ctx context.Context, domain string) ([]string, error) {
	addrs, err := c.Resolver.LookupHost(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", domain, err)
	}
	return addrs, nil
}

// DomainPointsTo reports whether the domain resolves to the given IP, and
// the addresses it actually resolved to (for the error message).
func (c *Checker) DomainPointsTo(ctx context.Context, domain, ip string) (bool, []string, error) {
	addrs, err := c.Resolve(ctx, domain)
	if err != nil {
		return false, nil, err
	}
	for _, a := range addrs {
		if a == ip {
			return true, addrs, nil
		}
	}
	return false, addrs, nil
}

// FetchSalts downloads a fresh set of WordPress authentication salts from
// the secret-key endpoint.
func (c *Checker) FetchSalts(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch salts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch salts: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", err
	}
	salts := strings.TrimSpace(string(body))
	if !strings.Contains(salts, "AUTH_KEY") {
		return "", fmt.Errorf("salts endpoint returned unexpected content")
	}
	return salts, nil
}
