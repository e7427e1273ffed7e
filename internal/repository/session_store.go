package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"persona-engine/internal/domain"
)

// SessionStore es la frontera de persistencia del motor.
// Load devuelve domain.ErrNotFound cuando no hay snapshot para la historia.
type SessionStore interface {
	Persist(ctx context.Context, storyID string, snapshot domain.SessionSnapshot) error
	Load(ctx context.Context, storyID string) (domain.SessionSnapshot, error)
	Delete(ctx context.Context, storyID string) error
}

func encodeSnapshot(snapshot domain.SessionSnapshot) ([]byte, error) {
	if snapshot.Session == nil {
		return nil, fmt.Errorf("encode snapshot: nil session")
	}
	b, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

func decodeSnapshot(b []byte) (domain.SessionSnapshot, error) {
	var snap domain.SessionSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("decode snapshot: %w: %w", domain.ErrPersistence, err)
	}
	if snap.Session == nil {
		return domain.SessionSnapshot{}, fmt.Errorf("decode snapshot: %w: missing session", domain.ErrPersistence)
	}
	if snap.Version > domain.SnapshotVersion {
		return domain.SessionSnapshot{}, fmt.Errorf("decode snapshot: %w: unsupported version %d", domain.ErrPersistence, snap.Version)
	}
	return snap, nil
}

// storeError marca una falla del backend como ErrPersistence sin perder la causa.
func storeError(op, id string, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, id, domain.ErrPersistence, err)
}

func normalizeStoryID(storyID string) (string, error) {
	id := strings.TrimSpace(storyID)
	if id == "" {
		return "", &domain.ValidationError{Field: "story_id", Reason: "required"}
	}
	return id, nil
}

// MemorySessionStore guarda snapshots serializados en memoria.
// Serializa igual que los stores reales para que el round-trip sea equivalente.
type MemorySessionStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{items: make(map[string][]byte)}
}

func (s *MemorySessionStore) Persist(_ context.Context, storyID string, snapshot domain.SessionSnapshot) error {
	id, err := normalizeStoryID(storyID)
	if err != nil {
		return err
	}
	b, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = b
	return nil
}

func (s *MemorySessionStore) Load(_ context.Context, storyID string) (domain.SessionSnapshot, error) {
	id, err := normalizeStoryID(storyID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	s.mu.RLock()
	b, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrNotFound
	}
	return decodeSnapshot(b)
}

func (s *MemorySessionStore) Delete(_ context.Context, storyID string) error {
	id, err := normalizeStoryID(storyID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// Len devuelve la cantidad de snapshots guardados.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
