package kv

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// File is a Store persisted as a single JSON file, used by local tooling and
// development runs. Writes go through a temp file and rename so a crash never
// leaves a half-written store.
type File struct {
	mu   sync.Mutex
	path string
	m    map[string]string
}

// OpenFile loads the store at path, creating an empty one if the file does
// not exist. A corrupt file is treated as empty rather than failing startup.
func OpenFile(path string) (*File, error) {
	s := &File{path: path, m: make(map[string]string)}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &s.m); err != nil {
		s.m = make(map[string]string)
	}
	return s, nil
}

func (s *File) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *File) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	s.flushLocked()
}

func (s *File) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	s.flushLocked()
}

// flushLocked writes the map to disk. Persistence is best-effort: a write
// failure degrades to session loss on restart, which the verify step already
// handles, so it is logged nowhere and never propagated.
func (s *File) flushLocked() {
	b, err := json.MarshalIndent(s.m, "", "  ")
	if err != nil {
		return
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return
	}
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return
	}
	_ = os.Rename(tmp, s.path)
}
