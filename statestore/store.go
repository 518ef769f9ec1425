// Package statestore persists the locally tracked request state per
// source key: a single serialized map, read at startup and rewritten
// after every mutation.
package statestore

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/hoelk-f/heatspace/access"
	"github.com/hoelk-f/heatspace/errors"
)

// MemoryStore is an in-memory access.Store, the zero-config default and
// the test double.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]access.StoredRequestState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]access.StoredRequestState)}
}

// Get returns the stored state for key.
func (s *MemoryStore) Get(key string) (access.StoredRequestState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, found := s.states[key]
	return st, found
}

// Set overwrites the stored state for key.
func (s *MemoryStore) Set(key string, state access.StoredRequestState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = state
	return nil
}

// All returns a copy of the stored map.
func (s *MemoryStore) All() map[string]access.StoredRequestState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]access.StoredRequestState, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}

// FileStore is a file-backed access.Store. The whole map is kept in
// memory and rewritten to disk on every Set.
type FileStore struct {
	mu     sync.Mutex
	path   string
	states map[string]access.StoredRequestState
}

// OpenFileStore loads the persisted map at path, treating a missing file
// as an empty store. A present but unreadable or corrupt file is an
// error: silently dropping tracked request state would lose pending
// markers.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		states: make(map[string]access.StoredRequestState),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "statestore", "OpenFileStore", "read "+path)
	}
	if err := json.Unmarshal(data, &s.states); err != nil {
		return nil, errors.WrapUnparseable(err, "statestore", "OpenFileStore", "decode "+path)
	}
	return s, nil
}

// Get returns the stored state for key.
func (s *FileStore) Get(key string) (access.StoredRequestState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, found := s.states[key]
	return st, found
}

// Set overwrites the stored state for key and rewrites the file.
func (s *FileStore) Set(key string, state access.StoredRequestState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = state
	return s.persistLocked()
}

// All returns a copy of the stored map.
func (s *FileStore) All() map[string]access.StoredRequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]access.StoredRequestState, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}

func (s *FileStore) persistLocked() error {
	data, err := json.MarshalIndent(s.states, "", "  ")
	if err != nil {
		return errors.Wrap(err, "statestore", "Set", "encode state map")
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrap(err, "statestore", "Set", "write "+s.path)
	}
	return nil
}
