package transport

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/wpforge/wpforge/internal/config"
	"github.com/wpforge/wpforge/internal/core"
)

// SSHTransport provisions a remote host over SSH. Files are served through
// an SFTP session so file-writing steps work unchanged.
type SSHTransport struct {
	client *ssh.Client
	sftp   *sftp.Client
	host   config.Host
}

var _ core.Transport = (*SSHTransport)(nil)

// NewSSHTransport opens a verified SSH connection to the given host. The
// server key must already be present in ~/.ssh/known_hosts; there is no
// insecure fallback.
func NewSSHTransport(h config.Host) (*SSHTransport, error) {
	var authMethods []ssh.AuthMethod
	if h.Password != "" {
		authMethods = append(authMethods, ssh.Password(h.Password))
	}
	if h.KeyFile != "" {
		key, err := os.ReadFile(h.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse ssh key: %w", err)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("home directory not found: %w", err)
	}
	knownHostsPath := filepath.Join(homeDir, ".ssh", "known_hosts")

	hostKeyCallback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts (%s): %w. Connect once with ssh to record the host key", knownHostsPath, err)
	}

	clientConfig := &ssh.ClientConfig{
		User:            h.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         15 * time.Second,
	}

	port := h.Port
	if port == 0 {
		port = 22
	}

	addr := fmt.Sprintf("%s:%d", h.Address, port)
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("ssh connection to %s failed: %w", addr, err)
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("open sftp session: %w", err)
	}

	return &SSHTransport{client: client, sftp: sftpClient, host: h}, nil
}

// Exec runs the command line on the remote host. Remote non-zero exits are
// reported via exitCode.
func (t *SSHTransport) Exec(ctx context.Context, command string) (string, string, int, error) {
	session, err := t.client.NewSession()
	if err != nil {
		return "", "", -1, fmt.Errorf("new ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return stdout.String(), stderr.String(), -1, ctx.Err()
	case err := <-done:
		if err != nil {
			if exitErr, ok := err.(*ssh.ExitError); ok {
				return stdout.String(), stderr.String(), exitErr.ExitStatus(), nil
			}
			return stdout.String(), stderr.String(), -1, err
		}
	}
	return stdout.String(), stderr.String(), 0, nil
}

func (t *SSHTransport) FileSystem() core.FileSystem {
	return &sftpFS{client: t.sftp}
}

func (t *SSHTransport) Close() error {
	if t.sftp != nil {
		t.sftp.Close()
	}
	return t.client.Close()
}
