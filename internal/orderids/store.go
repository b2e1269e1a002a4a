package orderids

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ms-booking/internal/models"
)

// StorageKey is the field holding the ids inside the cache file.
const StorageKey = "userOrderIds"

// Store is a file-backed ordered set of booking ids the caller has placed.
// It is a convenience list only; the server decides which ids are real.
type Store struct {
	Path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// DefaultPath places the cache under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "my-orders", "orders.json"), nil
}

// read returns the cached ids. A missing or unreadable file yields an empty list.
func (s *Store) read() []string {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return []string{}
	}
	var file map[string]json.RawMessage
	if err := json.Unmarshal(data, &file); err != nil {
		return []string{}
	}
	var ids []string
	if raw, ok := file[StorageKey]; !ok || json.Unmarshal(raw, &ids) != nil || ids == nil {
		return []string{}
	}
	return ids
}

func (s *Store) write(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(map[string][]string{StorageKey: ids})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

// Add appends id when it is not cached yet.
func (s *Store) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.read()
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return s.write(append(ids, id))
}

func (s *Store) Remove(id string) error {
	return s.RemoveAll([]string{id})
}

// RemoveAll drops every listed id, keeping the order of the rest.
func (s *Store) RemoveAll(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	current := s.read()
	kept := make([]string, 0, len(current))
	for _, id := range current {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	return s.write(kept)
}

func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

type Validator interface {
	Validate(ctx context.Context, ids []string) (*models.ValidationResult, error)
}

var ErrNothingToSync = errors.New("no order ids cached")

// Reconcile asks the server which cached ids are real and forgets the rest.
// On failure the cache is left untouched.
func (s *Store) Reconcile(ctx context.Context, v Validator) (*models.ValidationResult, error) {
	ids := s.List()
	if len(ids) == 0 {
		return nil, ErrNothingToSync
	}

	result, err := v.Validate(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(result.InvalidIDs) > 0 {
		if err := s.RemoveAll(result.InvalidIDs); err != nil {
			return nil, err
		}
	}
	return result, nil
}
