package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	AssignmentsDir = "assignments"
	WordFilesDir   = "word_files"
)

// BlobStore saves uploads under a caller chosen name
type BlobStore interface {
	// Save writes r to dir/name and returns the stored path
	Save(ctx context.Context, dir, name string, r io.Reader) (string, error)
	// Delete removes a path returned by Save; a missing blob is not an error
	Delete(ctx context.Context, path string) error
}

// LocalStore keeps blobs in directories below a root folder
type LocalStore struct {
	root string
}

// NewLocalStore creates root and the fixed upload directories
func NewLocalStore(root string) (*LocalStore, error) {
	for _, dir := range []string{AssignmentsDir, WordFilesDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
		}
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Save(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid blob name %q", name)
	}

	path := filepath.Join(s.root, dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return filepath.ToSlash(path), nil
}

func (s *LocalStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := filepath.Clean(filepath.FromSlash(path))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("blob %q is outside %s", path, s.root)
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
