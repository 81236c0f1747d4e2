package sessionstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nextlevelbuilder/slashbot/internal/providers"
)

// FileStore is a file-backed Store, one JSON file per agent under a storage
// directory (normally ~/.slashbot/agents/).
type FileStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	storage  string
}

// NewFileStore creates a store rooted at storage, loading any existing
// session files. An empty storage means in-memory only (no persistence).
func NewFileStore(storage string) *FileStore {
	fs := &FileStore{
		sessions: make(map[string]*Session),
		storage:  storage,
	}
	if storage != "" {
		_ = os.MkdirAll(storage, 0o755)
		fs.loadAll()
	}
	return fs
}

func (fs *FileStore) GetOrCreate(key string) *Session {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if s, ok := fs.sessions[key]; ok {
		return s
	}
	s := &Session{Key: key, Created: time.Now(), Updated: time.Now()}
	fs.sessions[key] = s
	return s
}

func (fs *FileStore) AddMessage(key string, msg providers.Message) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	s, ok := fs.sessions[key]
	if !ok {
		s = &Session{Key: key, Created: time.Now()}
		fs.sessions[key] = s
	}
	s.Messages = append(s.Messages, msg)
	s.Updated = time.Now()
}

func (fs *FileStore) SetSystemMessage(key string, msg providers.Message) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	s, ok := fs.sessions[key]
	if !ok {
		s = &Session{Key: key, Created: time.Now()}
		fs.sessions[key] = s
	}
	if len(s.Messages) == 0 || s.Messages[0].Role != "system" {
		s.Messages = append([]providers.Message{msg}, s.Messages...)
	} else {
		s.Messages[0] = msg
	}
	s.Updated = time.Now()
}

func (fs *FileStore) GetHistory(key string) []providers.Message {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	s, ok := fs.sessions[key]
	if !ok {
		return nil
	}
	out := make([]providers.Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

func (fs *FileStore) CompressHistory(key string, maxContextMessages int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	s, ok := fs.sessions[key]
	if !ok || len(s.Messages) <= maxContextMessages+1 {
		return
	}

	first := s.Messages[0]
	tail := s.Messages[len(s.Messages)-maxContextMessages:]
	compressed := make([]providers.Message, 0, maxContextMessages+1)
	compressed = append(compressed, first)
	compressed = append(compressed, tail...)
	s.Messages = compressed
	s.Updated = time.Now()
}

func (fs *FileStore) Reset(key string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if s, ok := fs.sessions[key]; ok {
		s.Messages = nil
		s.Updated = time.Now()
	}
}

func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	delete(fs.sessions, key)
	fs.mu.Unlock()

	if fs.storage == "" {
		return nil
	}
	path := filepath.Join(fs.storage, sanitizeFilename(key)+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (fs *FileStore) List() []Info {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	out := make([]Info, 0, len(fs.sessions))
	for _, s := range fs.sessions {
		out = append(out, Info{
			Key:          s.Key,
			MessageCount: len(s.Messages),
			Created:      s.Created,
			Updated:      s.Updated,
		})
	}
	return out
}

// Save atomically persists one session to disk (temp file + rename).
func (fs *FileStore) Save(key string) error {
	if fs.storage == "" {
		return nil
	}

	fs.mu.RLock()
	s, ok := fs.sessions[key]
	if !ok {
		fs.mu.RUnlock()
		return nil
	}
	snapshot := Session{Key: s.Key, Created: s.Created, Updated: s.Updated}
	snapshot.Messages = make([]providers.Message, len(s.Messages))
	copy(snapshot.Messages, s.Messages)
	fs.mu.RUnlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	filename := sanitizeFilename(key)
	if filename == "." || !filepath.IsLocal(filename) || strings.ContainsAny(filename, `/\`) {
		return os.ErrInvalid
	}
	targetPath := filepath.Join(fs.storage, filename+".json")

	tmp, err := os.CreateTemp(fs.storage, "session-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	if err := os.Rename(tmpPath, targetPath); err != nil {
		return err
	}
	cleanup = false
	return nil
}

func (fs *FileStore) loadAll() {
	files, err := os.ReadDir(fs.storage)
	if err != nil {
		return
	}
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(fs.storage, f.Name()))
		if err != nil {
			continue
		}
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		fs.sessions[s.Key] = &s
	}
}

func sanitizeFilename(key string) string {
	return strings.ReplaceAll(key, ":", "_")
}

var _ Store = (*FileStore)(nil)
