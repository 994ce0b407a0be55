package core

import "context"

// Transport abstracts where commands run and where files live: the local
// machine, a remote host over SSH, or a mock in tests. Exec runs a shell
// command line and returns captured stdout/stderr and the exit code; a
// non-zero exit is reported via exitCode, not err. err is reserved for
// transport-level failures (process could not start, connection dropped).
type Transport interface {
	Exec(ctx context.Context, command string) (stdout, stderr string, exitCode int, err error)
	FileSystem() FileSystem
	Close() error
}
