package store

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"subiclife/models"
)

// persistLocked writes the snapshot file. Best-effort: a failure is
// logged, never returned, since the in-memory state is authoritative for
// the life of the process. Callers hold the lock.
func (s *Store) persistLocked() {
	if s.path == "" {
		return
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		log.Printf("store: snapshot marshal: %v", err)
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		log.Printf("store: snapshot write: %v", err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		log.Printf("store: snapshot rename: %v", err)
	}
}

// Flush rewrites the snapshot, used on shutdown.
func (s *Store) Flush() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.persistLocked()
}

func readSnapshot(path string) (*models.Snapshot, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
