package modelstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Parthita/train-delay-backend/core/logger"
	"github.com/Parthita/train-delay-backend/core/training"
)

// FileStore keeps one JSON envelope per train under a directory. Writes go
// to a temporary file first and are renamed into place, so readers always
// see either the previous artifact or the complete new one. Writes for the
// same train are serialized; distinct trains do not contend.
type FileStore struct {
	dir string
	log logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, log logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	return &FileStore{dir: dir, log: log, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *FileStore) path(train string) string {
	return filepath.Join(s.dir, train+"_model.json")
}

func (s *FileStore) lockFor(train string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[train]
	if !ok {
		l = &sync.Mutex{}
		s.locks[train] = l
	}
	return l
}

// Get loads the train's artifact. ErrNotFound is returned when no envelope
// exists; an envelope missing either half is reported as corrupt.
func (s *FileStore) Get(train string) (*training.Artifact, error) {
	data, err := os.ReadFile(s.path(train))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact for train %s: %w", train, err)
	}
	var art training.Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("decode artifact for train %s: %w", train, err)
	}
	if art.Model == nil || art.Encoder == nil {
		return nil, fmt.Errorf("artifact for train %s is incomplete", train)
	}
	return &art, nil
}

// Put atomically replaces the train's artifact.
func (s *FileStore) Put(train string, art *training.Artifact) error {
	if art == nil || art.Model == nil || art.Encoder == nil {
		return fmt.Errorf("refusing to store incomplete artifact for train %s", train)
	}
	stamped := *art
	stamped.Train = train

	data, err := json.Marshal(&stamped)
	if err != nil {
		return fmt.Errorf("encode artifact for train %s: %w", train, err)
	}

	l := s.lockFor(train)
	l.Lock()
	defer l.Unlock()

	tmp, err := os.CreateTemp(s.dir, train+"_model-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(train)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace artifact for train %s: %w", train, err)
	}
	s.log.Debugf("stored artifact for train %s", train)
	return nil
}

// Exists reports whether an envelope is present without decoding it.
func (s *FileStore) Exists(train string) bool {
	_, err := os.Stat(s.path(train))
	return err == nil
}
