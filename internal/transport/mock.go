package transport

import (
	"context"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/wpforge/wpforge/internal/core"
)

// MockTransport simulates a target host for tests. Canned responses are
// matched first exactly, then by substring, so tests can register a fragment
// like "dpkg -s apache2" and match the full command line.
type MockTransport struct {
	mu        sync.Mutex
	Responses map[string]string
	ExitCodes map[string]int
	Errors    map[string]error
	Calls     []string
	fs        *MemFS

	// DefaultExitCode is returned for unregistered commands. Zero by
	// default so happy-path tests need no exhaustive setup.
	DefaultExitCode int
}

var _ core.Transport = (*MockTransport)(nil)

func NewMockTransport() *MockTransport {
	return &MockTransport{
		Responses: make(map[string]string),
		ExitCodes: make(map[string]int),
		Errors:    make(map[string]error),
		fs:        NewMemFS(),
	}
}

// AddResponse registers canned stdout for a command fragment.
func (m *MockTransport) AddResponse(cmd, output string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[cmd] = output
}

// AddExitCode registers a canned exit code for a command fragment.
func (m *MockTransport) AddExitCode(cmd string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExitCodes[cmd] = code
}

// AddError registers a transport-level error for a command fragment.
func (m *MockTransport) AddError(cmd string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[cmd] = err
}

func (m *MockTransport) Exec(ctx context.Context, command string) (string, string, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, command)

	if err, ok := m.matchError(command); ok {
		return "", err.Error(), -1, err
	}

	output, _ := m.matchResponse(command)
	if code, ok := m.matchExitCode(command); ok {
		return output, "", code, nil
	}
	return output, "", m.DefaultExitCode, nil
}

func (m *MockTransport) matchResponse(command string) (string, bool) {
	if out, ok := m.Responses[command]; ok {
		return out, true
	}
	for k, v := range m.Responses {
		if strings.Contains(command, k) {
			return v, true
		}
	}
	return "", false
}

func (m *MockTransport) matchExitCode(command string) (int, bool) {
	if code, ok := m.ExitCodes[command]; ok {
		return code, true
	}
	for k, v := range m.ExitCodes {
		if strings.Contains(command, k) {
			return v, true
		}
	}
	return 0, false
}

func (m *MockTransport) matchError(command string) (error, bool) {
	if err, ok := m.Errors[command]; ok {
		return err, true
	}
	for k, v := range m.Errors {
		if strings.Contains(command, k) {
			return v, true
		}
	}
	return nil, false
}

// AssertCalled reports whether any executed command contains the fragment.
func (m *MockTransport) AssertCalled(fragment string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, call := range m.Calls {
		if strings.Contains(call, fragment) {
			return true
		}
	}
	return false
}

func (m *MockTransport) FileSystem() core.FileSystem {
	return m.fs
}

// FS exposes the in-memory filesystem for test assertions.
func (m *MockTransport) FS() *MemFS {
	return m.fs
}

func (m *MockTransport) Close() error {
	return nil
}

// MemFS is an in-memory core.FileSystem for tests.
type MemFS struct {
	mu    sync.Mutex
	files map[string]*memFile
	dirs  map[string]bool
}

type memFile struct {
	data []byte
	mode os.FileMode
}

func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string]*memFile),
		dirs:  make(map[string]bool),
	}
}

func (f *MemFS) Stat(name string) (fs.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file, ok := f.files[name]; ok {
		return &memFileInfo{name: path.Base(name), size: int64(len(file.data)), mode: file.mode}, nil
	}
	if f.dirs[name] {
		return &memFileInfo{name: path.Base(name), mode: fs.ModeDir | 0755, dir: true}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

func (f *MemFS) ReadFile(name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	out := make([]byte, len(file.data))
	copy(out, file.data)
	return out, nil
}

func (f *MemFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	f.files[name] = &memFile{data: buf, mode: perm}
	return nil
}

func (f *MemFS) MkdirAll(dir string, perm os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for dir != "/" && dir != "." && dir != "" {
		f.dirs[dir] = true
		dir = path.Dir(dir)
	}
	return nil
}

func (f *MemFS) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[name]; ok {
		delete(f.files, name)
		return nil
	}
	if f.dirs[name] {
		delete(f.dirs, name)
		return nil
	}
	return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
}

func (f *MemFS) Rename(oldpath, newpath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[oldpath]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	f.files[newpath] = file
	delete(f.files, oldpath)
	return nil
}

func (f *MemFS) Chmod(name string, mode os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[name]
	if !ok {
		return &fs.PathError{Op: "chmod", Path: name, Err: fs.ErrNotExist}
	}
	file.mode = mode
	return nil
}

type memFileInfo struct {
	name string
	size int64
	mode fs.FileMode
	dir  bool
}

func (i *memFileInfo) Name() string       { return i.name }
func (i *memFileInfo) Size() int64        { return i.size }
func (i *memFileInfo) Mode() fs.FileMode  { return i.mode }
func (i *memFileInfo) ModTime() time.Time { return time.Time{} }
func (i *memFileInfo) IsDir() bool        { return i.dir }
func (i *memFileInfo) Sys() any           { return nil }
