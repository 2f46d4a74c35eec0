package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"media-pipeline/internal/filesystem"
	"media-pipeline/internal/logging"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("storage: store is closed")
	// ErrInvalidPath is returned for paths that are absolute or escape the root.
	ErrInvalidPath = errors.New("storage: invalid path")
)

// Store is a rooted directory holding one kind of media (images or videos).
// All paths are relative to the root. A Store is opened once at process
// start and closed once at shutdown; it is safe for concurrent use.
type Store struct {
	root   string
	name   string
	retry  filesystem.RetryConfig
	closed atomic.Bool
}

// Open creates the root directory if needed and returns a Store for it.
// name labels the store in logs ("images", "videos").
func Open(root, name string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s store root: %w", name, err)
	}

	retry := filesystem.DefaultRetryConfig()
	retry.Volume = name
	s := &Store{
		root:  abs,
		name:  name,
		retry: retry,
	}

	if err := filesystem.MkdirAllWithRetry(abs, 0o755, s.retry); err != nil {
		return nil, fmt.Errorf("create %s store root: %w", name, err)
	}

	logging.Debug("Opened %s store at %s", name, abs)
	return s, nil
}

// Close releases the store. Further operations return ErrClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return ErrClosed
	}
	logging.Debug("Closed %s store at %s", s.name, s.root)
	return nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string {
	return s.root
}

// Name returns the store label.
func (s *Store) Name() string {
	return s.name
}

// Path resolves rel against the root. It is exported for collaborators
// that need a real file path, such as ffmpeg.
func (s *Store) Path(rel string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if rel == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}
	return filepath.Join(s.root, rel), nil
}

// Exists reports whether rel exists.
func (s *Store) Exists(rel string) (bool, error) {
	p, err := s.Path(rel)
	if err != nil {
		return false, err
	}
	_, err = filesystem.StatWithRetry(p, s.retry)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Read returns the contents of rel.
func (s *Store) Read(rel string) ([]byte, error) {
	p, err := s.Path(rel)
	if err != nil {
		return nil, err
	}
	return filesystem.ReadFileWithRetry(p, s.retry)
}

// Write stores data at rel. The parent directory must exist.
func (s *Store) Write(rel string, data []byte) error {
	p, err := s.Path(rel)
	if err != nil {
		return err
	}
	return filesystem.WriteFileWithRetry(p, data, 0o644, s.retry)
}

// MakeDir creates rel and any missing parents.
func (s *Store) MakeDir(rel string) error {
	p, err := s.Path(rel)
	if err != nil {
		return err
	}
	return filesystem.MkdirAllWithRetry(p, 0o755, s.retry)
}

// RemoveAll deletes rel and everything beneath it. Missing paths are not an error.
func (s *Store) RemoveAll(rel string) error {
	p, err := s.Path(rel)
	if err != nil {
		return err
	}
	return filesystem.RemoveAllWithRetry(p, s.retry)
}

// Scope returns a view of the store rooted at the directory for one identifier.
func (s *Store) Scope(identifier string) *Scope {
	return &Scope{store: s, dir: identifier}
}

// Scope is a Store view limited to one identifier's directory.
type Scope struct {
	store *Store
	dir   string
}

// Dir returns the identifier this scope is bound to.
func (sc *Scope) Dir() string {
	return sc.dir
}

func (sc *Scope) rel(name string) (string, error) {
	if name == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return filepath.Join(sc.dir, name), nil
}

// Create makes the scope's directory.
func (sc *Scope) Create() error {
	return sc.store.MakeDir(sc.dir)
}

// Exists reports whether name exists inside the scope.
func (sc *Scope) Exists(name string) (bool, error) {
	rel, err := sc.rel(name)
	if err != nil {
		return false, err
	}
	return sc.store.Exists(rel)
}

// Read returns the contents of name inside the scope.
func (sc *Scope) Read(name string) ([]byte, error) {
	rel, err := sc.rel(name)
	if err != nil {
		return nil, err
	}
	return sc.store.Read(rel)
}

// Write stores data as name inside the scope.
func (sc *Scope) Write(name string, data []byte) error {
	rel, err := sc.rel(name)
	if err != nil {
		return err
	}
	return sc.store.Write(rel, data)
}

// Path returns the absolute path of name inside the scope.
func (sc *Scope) Path(name string) (string, error) {
	rel, err := sc.rel(name)
	if err != nil {
		return "", err
	}
	return sc.store.Path(rel)
}

// Remove deletes the scope's directory and its contents.
func (sc *Scope) Remove() error {
	return sc.store.RemoveAll(sc.dir)
}
