// Package artifacts archives exported assessment reports in a
// content-addressed store. Keys are "sha256:<hex>" digests of the stored
// bytes; reports are stored in canonical form so a report's key equals its
// content hash.
package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const digestPrefix = "sha256:"

var (
	ErrNotFound      = errors.New("artifacts: not found")
	ErrInvalidDigest = errors.New("artifacts: invalid digest")
)

// Store is a content-addressed blob store.
type Store interface {
	// Put persists data and returns its digest. Storing the same bytes twice
	// is a no-op.
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, digest string) ([]byte, error)
	Exists(ctx context.Context, digest string) (bool, error)
	Delete(ctx context.Context, digest string) error
}

// Digest returns the "sha256:<hex>" key for data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return digestPrefix + hex.EncodeToString(sum[:])
}

// parseDigest validates digest and returns its hex part.
func parseDigest(digest string) (string, error) {
	raw, ok := strings.CutPrefix(digest, digestPrefix)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDigest, digest)
	}
	b, err := hex.DecodeString(raw)
	if err != nil || len(b) != sha256.Size {
		return "", fmt.Errorf("%w: %q", ErrInvalidDigest, digest)
	}
	return raw, nil
}

func objectName(prefix, raw string) string {
	return prefix + raw + ".json"
}

// FileStore keeps blobs as files under a directory.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStore creates the directory if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure archive dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) path(raw string) string {
	return filepath.Join(s.baseDir, objectName("", raw))
}

func (s *FileStore) Put(_ context.Context, data []byte) (string, error) {
	digest := Digest(data)
	path := s.path(strings.TrimPrefix(digest, digestPrefix))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(path); err == nil {
		return digest, nil
	}
	// write then rename so readers never see a partial blob
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to commit blob: %w", err)
	}
	return digest, nil
}

func (s *FileStore) Get(_ context.Context, digest string) ([]byte, error) {
	raw, err := parseDigest(digest)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(s.path(raw))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, digest)
	}
	return data, err
}

func (s *FileStore) Exists(_ context.Context, digest string) (bool, error) {
	raw, err := parseDigest(digest)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err = os.Stat(s.path(raw))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (s *FileStore) Delete(_ context.Context, digest string) error {
	raw, err := parseDigest(digest)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(raw)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
