package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/candidwatch/go-proctor/pkg/event"
	"github.com/candidwatch/go-proctor/pkg/session"
)

// storeData is the JSON structure for the store file.
type storeData struct {
	Version   int                      `json:"version"`
	UpdatedAt string                   `json:"updated_at"`
	Sessions  []*session.Session       `json:"sessions"`
	Events    map[string][]event.Event `json:"events"`
}

const currentVersion = 1

// JSONStore persists the in-memory store to a single JSON file after every
// mutation. Suitable for single-node deployments and local development.
type JSONStore struct {
	*MemoryStore

	path   string
	fileMu sync.Mutex
}

// NewJSON creates a JSON-backed store at the given path, loading existing
// data if the file is present.
func NewJSON(path string) (*JSONStore, error) {
	store := &JSONStore{
		MemoryStore: NewMemory(),
		path:        path,
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.load(); err != nil {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
	}

	return store, nil
}

// load reads the store file into memory.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*session.Session)
	for _, sess := range stored.Sessions {
		s.sessions[sess.ID] = sess
	}
	s.events = make(map[string][]event.Event)
	for id, evs := range stored.Events {
		s.events[id] = evs
	}

	return nil
}

// save writes the store to disk via a temp file and rename.
func (s *JSONStore) save() error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	s.mu.RLock()
	stored := storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Sessions:  make([]*session.Session, 0, len(s.sessions)),
		Events:    make(map[string][]event.Event, len(s.events)),
	}
	for _, sess := range s.sessions {
		cp := *sess
		stored.Sessions = append(stored.Sessions, &cp)
	}
	for id, evs := range s.events {
		stored.Events[id] = append([]event.Event(nil), evs...)
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	return nil
}

// CreateSession creates a session and persists the store.
func (s *JSONStore) CreateSession(ctx context.Context, candidateName string) (*session.Session, error) {
	sess, err := s.MemoryStore.CreateSession(ctx, candidateName)
	if err != nil {
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return sess, nil
}

// UpdateSession applies a partial update and persists the store.
func (s *JSONStore) UpdateSession(ctx context.Context, id string, patch session.Patch) (*session.Session, error) {
	sess, err := s.MemoryStore.UpdateSession(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return sess, nil
}

// AppendEvent appends an event and persists the store.
func (s *JSONStore) AppendEvent(ctx context.Context, sessionID string, draft event.Draft) (*event.Event, error) {
	ev, err := s.MemoryStore.AppendEvent(ctx, sessionID, draft)
	if err != nil {
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return ev, nil
}

// Close flushes the store to disk one last time.
func (s *JSONStore) Close() error {
	return s.save()
}
