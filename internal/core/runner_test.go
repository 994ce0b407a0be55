package core_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wpforge/wpforge/internal/core"
	"github.com/wpforge/wpforge/internal/transport"
)

func TestRunner_NonZeroExitIsNotAnError(t *testing.T) {
	mock := transport.NewMockTransport()
	mock.AddExitCode("dpkg -s apache2", 1)

	pc := core.NewProvisionContext(context.Background(), mock)
	res, err := pc.Runner.Run(pc, "dpkg -s apache2")
	if err != nil {
		t.Fatalf("non-zero exit reported as error: %v", err)
	}
	if res.Ok() {
		t.Error("Ok() true for exit code 1")
	}
	if res.ExitCode != 1 {
		t.Errorf("exit code %d, want 1", res.ExitCode)
	}
}

func TestRunner_MustRunConvertsExitCode(t *testing.T) {
	mock := transport.NewMockTransport()
	mock.AddExitCode("apachectl configtest", 1)

	pc := core.NewProvisionContext(context.Background(), mock)
	_, err := pc.Runner.MustRun(pc, "apachectl configtest")

	var cmdErr *core.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("want CommandError, got %v", err)
	}
	if cmdErr.ExitCode != 1 || cmdErr.Command != "apachectl configtest" {
		t.Errorf("CommandError not populated: %+v", cmdErr)
	}
}

// blockingTransport hangs until the context is cancelled, standing in for a
// hung remote command.
type blockingTransport struct {
	transport.MockTransport
}

func (b *blockingTransport) Exec(ctx context.Context, command string) (string, string, int, error) {
	<-ctx.Done()
	return "", "", -1, ctx.Err()
}

func (b *blockingTransport) FileSystem() core.FileSystem {
	return transport.NewMemFS()
}

func (b *blockingTransport) Close() error { return nil }

func TestRunner_TimeoutKillsCommand(t *testing.T) {
	pc := core.NewProvisionContext(context.Background(), &blockingTransport{})

	start := time.Now()
	_, err := pc.Runner.RunWithTimeout(pc, "sleep 600", 20*time.Millisecond)
	if time.Since(start) > time.Second {
		t.Fatal("runner did not honor the timeout")
	}

	var toErr *core.TimeoutError
	if !errors.As(err, &toErr) {
		t.Fatalf("want TimeoutError, got %v", err)
	}
	if toErr.Command != "sleep 600" {
		t.Errorf("TimeoutError names %q", toErr.Command)
	}
}

func TestRunner_MirrorsOutputToRunLog(t *testing.T) {
	mock := transport.NewMockTransport()
	mock.AddResponse("mysql --version", "mysql  Ver 15.1 Distrib 10.11.6-MariaDB")

	var log strings.Builder
	pc := core.NewProvisionContext(context.Background(), mock)
	pc.RunLog = &log

	if _, err := pc.Runner.Run(pc, "mysql --version"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(log.String(), "$ mysql --version") {
		t.Error("command line missing from run log")
	}
	if !strings.Contains(log.String(), "10.11.6-MariaDB") {
		t.Error("stdout missing from run log")
	}
}

func TestRunner_TransportErrorWraps(t *testing.T) {
	mock := transport.NewMockTransport()
	broken := errors.New("connection reset")
	mock.AddError("apt-get", broken)

	pc := core.NewProvisionContext(context.Background(), mock)
	_, err := pc.Runner.Run(pc, "apt-get update")
	if !errors.Is(err, broken) {
		t.Fatalf("transport error not wrapped: %v", err)
	}
}
