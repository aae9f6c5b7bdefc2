package scores

import (
	"sort"
	"sync"
)

// Store persists profiles and game records
type Store interface {
	GetProfile(uid string) (*Profile, error)
	SaveProfile(p *Profile) error
	ListProfiles() ([]*Profile, error)
	SaveGame(rec *GameRecord) error
	ListGames(uid string) ([]*GameRecord, error)
}

// MemoryStore keeps everything in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	games    map[string][]GameRecord
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]Profile),
		games:    make(map[string][]GameRecord),
	}
}

func (s *MemoryStore) GetProfile(uid string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[uid]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (s *MemoryStore) SaveProfile(p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UID] = *p
	return nil
}

func (s *MemoryStore) ListProfiles() ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

func (s *MemoryStore) SaveGame(rec *GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[rec.UserID] = append(s.games[rec.UserID], *rec)
	return nil
}

func (s *MemoryStore) ListGames(uid string) ([]*GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.games[uid]
	out := make([]*GameRecord, 0, len(recs))
	for i := range recs {
		rec := recs[i]
		out = append(out, &rec)
	}
	return out, nil
}
