package scores

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

type fileState struct {
	Profiles map[string]Profile      `json:"profiles"`
	Games    map[string][]GameRecord `json:"games"`
}

// FileStore keeps every profile and game record in one JSON document
type FileStore struct {
	mu   sync.RWMutex
	path string
	s    fileState
}

// NewFileStore opens, or creates, scores.json under dataDir
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scores directory: %w", err)
	}
	fs := &FileStore{
		path: filepath.Join(dataDir, "scores.json"),
		s:    emptyState(),
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func emptyState() fileState {
	return fileState{
		Profiles: map[string]Profile{},
		Games:    map[string][]GameRecord{},
	}
}

func (fs *FileStore) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	b, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			fs.s = emptyState()
			return nil
		}
		return fmt.Errorf("failed to read scores file: %w", err)
	}

	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		return fmt.Errorf("failed to parse scores file: %w", err)
	}
	if loaded.Profiles == nil {
		loaded.Profiles = map[string]Profile{}
	}
	if loaded.Games == nil {
		loaded.Games = map[string][]GameRecord{}
	}
	fs.s = loaded
	return nil
}

func (fs *FileStore) saveLocked() error {
	b, err := json.MarshalIndent(fs.s, "", "  ")
	if err != nil {
		return err
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("failed to write scores file: %w", err)
	}
	return os.Rename(tmp, fs.path)
}

func (fs *FileStore) GetProfile(uid string) (*Profile, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	p, ok := fs.s.Profiles[uid]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (fs *FileStore) SaveProfile(p *Profile) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.s.Profiles[p.UID] = *p
	return fs.saveLocked()
}

func (fs *FileStore) ListProfiles() ([]*Profile, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]*Profile, 0, len(fs.s.Profiles))
	for _, p := range fs.s.Profiles {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

func (fs *FileStore) SaveGame(rec *GameRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.s.Games[rec.UserID] = append(fs.s.Games[rec.UserID], *rec)
	return fs.saveLocked()
}

func (fs *FileStore) ListGames(uid string) ([]*GameRecord, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	recs := fs.s.Games[uid]
	out := make([]*GameRecord, 0, len(recs))
	for i := range recs {
		rec := recs[i]
		out = append(out, &rec)
	}
	return out, nil
}
