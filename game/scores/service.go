package scores

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/mcp-training/tiletris/game/engine"
)

// Service implements profiles, personal-best submission and rankings on top
// of a Store
type Service struct {
	store Store
	now   func() time.Time
	mu    sync.Mutex
}

// NewService creates a score service
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Profile returns the profile of uid
func (s *Service) Profile(uid string) (*Profile, error) {
	return s.store.GetProfile(uid)
}

// EnsureProfile returns the profile of uid, creating an empty one first
func (s *Service) EnsureProfile(uid string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(uid)
}

func (s *Service) ensureLocked(uid string) (*Profile, error) {
	if uid == "" {
		return nil, fmt.Errorf("uid is required")
	}
	p, err := s.store.GetProfile(uid)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}
	now := s.now()
	p = &Profile{UID: uid, CreatedAt: now, LastPlayed: now}
	if err := s.store.SaveProfile(p); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return p, nil
}

// RecordGame stores a finished game for uid and counts it in the profile
func (s *Service) RecordGame(uid, sessionID string, state *engine.GameState) (*GameRecord, error) {
	if state == nil {
		return nil, fmt.Errorf("game state cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.ensureLocked(uid)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := &GameRecord{
		ID:         uuid.NewString(),
		UserID:     uid,
		SessionID:  sessionID,
		ConfigName: state.ConfigName,
		Score:      state.Score,
		StartAt:    state.Stats.StartedAt,
		EndAt:      now,
		Stats:      state.Stats,
	}
	if state.Stats.EndedAt != nil {
		rec.EndAt = *state.Stats.EndedAt
	}
	if err := s.store.SaveGame(rec); err != nil {
		return nil, fmt.Errorf("failed to save game record: %w", err)
	}

	p.TotalGames++
	p.LastPlayed = now
	if err := s.store.SaveProfile(p); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return rec, nil
}

// IsPersonalBest reports whether score beats uid's best. A player without a
// profile always has a personal best.
func (s *Service) IsPersonalBest(uid string, score int) (bool, error) {
	p, err := s.store.GetProfile(uid)
	if errors.Is(err, ErrProfileNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return score > p.BestScore, nil
}

// SubmitScore publishes score under username if it is uid's personal best
func (s *Service) SubmitScore(uid, username string, score int) (*Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if score <= 0 {
		return nil, ErrZeroScore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	best, err := s.IsPersonalBest(uid, score)
	if err != nil {
		return nil, err
	}
	if !best {
		return nil, ErrNotPersonalBest
	}

	now := s.now()
	p, err := s.store.GetProfile(uid)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		p = &Profile{UID: uid, TotalGames: 1, CreatedAt: now}
	case err != nil:
		return nil, err
	}
	p.Username = username
	p.BestScore = max(p.BestScore, score)
	p.LastPlayed = now

	if err := s.store.SaveProfile(p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return p, nil
}

// Rankings returns the best players by best score, highest first. Players
// who never scored are left out.
func (s *Service) Rankings(limit int) ([]RankingEntry, error) {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	profiles, err := s.store.ListProfiles()
	if err != nil {
		return nil, err
	}

	ranked := make([]*Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.BestScore > 0 {
			ranked = append(ranked, p)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].BestScore != ranked[j].BestScore {
			return ranked[i].BestScore > ranked[j].BestScore
		}
		return ranked[i].LastPlayed.Before(ranked[j].LastPlayed)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	entries := make([]RankingEntry, 0, len(ranked))
	for i, p := range ranked {
		name := p.Username
		if name == "" {
			name = AnonymousName
		}
		entries = append(entries, RankingEntry{
			Rank:       i + 1,
			UID:        p.UID,
			Username:   name,
			Score:      p.BestScore,
			LastPlayed: p.LastPlayed,
		})
	}
	return entries, nil
}

// Games returns uid's game records, most recent first
func (s *Service) Games(uid string) ([]*GameRecord, error) {
	games, err := s.store.ListGames(uid)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(games, func(i, j int) bool { return games[i].EndAt.After(games[j].EndAt) })
	return games, nil
}
