package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/erkit/pkg/errors"
)

const fileExt = ".json"

// FileStore keeps each document in <dir>/<id>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a store in dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create store dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) (string, error) {
	if err := errors.ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id+fileExt), nil
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, id string) ([]byte, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read diagram %s", id)
	}
	return data, nil
}

// Put implements Store.
func (s *FileStore) Put(_ context.Context, id string, doc []byte) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, doc, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write diagram %s", id)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeStorage, err, "write diagram %s", id)
	}
	return nil
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return notFound(id)
		}
		return errors.Wrap(errors.ErrCodeStorage, err, "delete diagram %s", id)
	}
	return nil
}

// List implements Store.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list %s", s.dir)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := strings.CutSuffix(e.Name(), fileExt); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
