package transport

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/wpforge/wpforge/internal/core"
)

// LocalTransport runs commands on the machine wpforge itself runs on. This
// is the normal mode: the binary is executed on the host being provisioned.
type LocalTransport struct {
	fs core.FileSystem
}

func NewLocalTransport() *LocalTransport {
	return &LocalTransport{fs: &core.RealFS{}}
}

var _ core.Transport = (*LocalTransport)(nil)

// Exec runs the command line through the shell so pipes and redirects work.
// A non-zero exit is reported via exitCode, not err.
func (t *LocalTransport) Exec(ctx context.Context, command string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
		}
		// Context cancellation or spawn failure.
		return stdout.String(), stderr.String(), -1, err
	}
	return stdout.String(), stderr.String(), 0, nil
}

func (t *LocalTransport) FileSystem() core.FileSystem {
	return t.fs
}

func (t *LocalTransport) Close() error {
	return nil
}
