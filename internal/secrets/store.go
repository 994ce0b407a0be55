// Package secrets owns the bundle of generated-once credentials (database
// root password, per-site passwords, WordPress salts). Values are generated
// exactly once per installation and reused by every later run, including the
// add-site flow.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrSecretNotFound is returned by Lookup when the bundle or the key is
// missing. Callers abort with a clear message instead of guessing.
var ErrSecretNotFound = errors.New("secret not found")

// Well-known bundle keys.
const (
	KeyDBRootPassword = "dbRootPassword"
)

// DBPasswordKey returns the bundle key of a site's database password.
func DBPasswordKey(site string) string {
	return "dbPassword/" + site
}

// SaltsKey returns the bundle key of a site's WordPress salts block.
func SaltsKey(site string) string {
	return "wpSalts/" + site
}

// FileSystem is the minimum filesystem surface the store needs.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

type bundle struct {
	Version string            `json:"version"`
	Updated time.Time         `json:"updated"`
	Secrets map[string]string `json:"secrets"`
}

// Store persists the secret bundle as an owner-only JSON file.
type Store struct {
	Path string
	FS   FileSystem
	mu   sync.Mutex
}

func NewStore(path string, fsys FileSystem) *Store {
	return &Store{Path: path, FS: fsys}
}

// GenerateOnce returns the stored value for key, generating and persisting a
// fresh random credential only when the key does not exist yet. It never
// regenerates.
func (s *Store) GenerateOnce(key string) (string, error) {
	return s.GenerateOnceWith(key, RandomCredential)
}

// GenerateOnceWith is GenerateOnce with a caller-supplied generator, used
// for multi-line values like WordPress salts.
func (s *Store) GenerateOnceWith(key string, generate func() (string, error)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.load()
	if err != nil {
		return "", err
	}
	if val, ok := b.Secrets[key]; ok {
		return val, nil
	}

	val, err := generate()
	if err != nil {
		return "", fmt.Errorf("generate secret %q: %w", key, err)
	}
	b.Secrets[key] = val
	if err := s.save(b); err != nil {
		return "", err
	}
	return val, nil
}

// Lookup returns the stored value for key. A missing bundle or key yields
// ErrSecretNotFound.
func (s *Store) Lookup(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.load()
	if err != nil {
		return "", err
	}
	val, ok := b.Secrets[key]
	if !ok {
		return "", fmt.Errorf("%w: %s (bundle %s)", ErrSecretNotFound, key, s.Path)
	}
	return val, nil
}

func (s *Store) load() (*bundle, error) {
	data, err := s.FS.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return &bundle{Version: "1", Secrets: make(map[string]string)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secret bundle %s: %w", s.Path, err)
	}

	var b bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("corrupt secret bundle %s: %w", s.Path, err)
	}
	if b.Secrets == nil {
		b.Secrets = make(map[string]string)
	}
	return &b, nil
}

func (s *Store) save(b *bundle) error {
	b.Updated = time.Now()

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}

	// Owner-only: the bundle holds live credentials.
	if err := s.FS.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return s.FS.WriteFile(s.Path, data, 0o600)
}

// RandomCredential produces a 32-character base64url credential from 24
// random bytes.
func RandomCredential() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
