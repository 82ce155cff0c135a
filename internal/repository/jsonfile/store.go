package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"motiontracker/internal/model"
	"motiontracker/internal/repository"

	"github.com/pkg/errors"
)

// Store keeps the trajectory as a single {"x": [...], "y": [...]} document.
// Every Save rewrites the file through a temporary file and a rename, so a
// reader only ever sees a complete snapshot.
type Store struct {
	path string
	mu   sync.RWMutex
}

// New creates a Store writing to path. The parent directory is created if needed.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "create snapshot directory")
		}
	}
	return &Store{path: path}, nil
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Save writes snapshot atomically. It returns ctx.Err() once ctx is done even
// if the write is still blocked; that write completes in the background and
// the next Save waits for it.
func (s *Store) Save(ctx context.Context, snapshot model.Coordinates) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(normalize(snapshot))
	if err != nil {
		return errors.Wrap(err, "encode coordinates")
	}

	done := make(chan error, 1)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		done <- s.write(data)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// write replaces the snapshot file with data. Callers hold mu.
func (s *Store) write(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temporary snapshot")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write snapshot")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "replace snapshot")
	}
	return nil
}

// Latest reads the snapshot file back. A missing file means nothing was tracked yet.
func (s *Store) Latest(ctx context.Context) (model.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return model.Coordinates{}, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.path)
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return model.Coordinates{}, repository.ErrNotFound
		}
		return model.Coordinates{}, errors.Wrap(err, "read snapshot")
	}

	var coords model.Coordinates
	if err := json.Unmarshal(data, &coords); err != nil {
		return model.Coordinates{}, errors.Wrapf(err, "decode %s", s.path)
	}
	if len(coords.X) != len(coords.Y) {
		return model.Coordinates{}, errors.Errorf("%s: x has %d values, y has %d", s.path, len(coords.X), len(coords.Y))
	}
	if coords.Len() == 0 {
		return model.Coordinates{}, repository.ErrNotFound
	}
	return coords, nil
}

// Close is a no-op; the file is not held open between saves.
func (s *Store) Close() error {
	return nil
}

// normalize makes empty sequences encode as [] rather than null.
func normalize(c model.Coordinates) model.Coordinates {
	if c.X == nil {
		c.X = []int{}
	}
	if c.Y == nil {
		c.Y = []int{}
	}
	return c
}
