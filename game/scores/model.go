package scores

import (
	"errors"
	"time"

	"github.com/wricardo/mcp-training/tiletris/game/engine"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrUsernameRequired = errors.New("username is required")
	ErrZeroScore        = errors.New("cannot submit a score of 0")
	ErrNotPersonalBest  = errors.New("only personal best scores can be submitted")
)

// AnonymousName is shown in rankings for players who never chose a username
const AnonymousName = "Anonymous"

// DefaultRankingLimit is the ranking size when no limit is given
const DefaultRankingLimit = 10

// Profile is a player's long-lived record
type Profile struct {
	UID        string    `json:"uid"`
	Username   string    `json:"username"`
	BestScore  int       `json:"best_score"`
	TotalGames int       `json:"total_games"`
	CreatedAt  time.Time `json:"created_at"`
	LastPlayed time.Time `json:"last_played"`
}

// GameRecord is one finished game
type GameRecord struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	SessionID  string       `json:"session_id"`
	ConfigName string       `json:"config_name"`
	Score      int          `json:"score"`
	StartAt    time.Time    `json:"start_at"`
	EndAt      time.Time    `json:"end_at"`
	Stats      engine.Stats `json:"stats"`
}

// RankingEntry is one line of the global ranking
type RankingEntry struct {
	Rank       int       `json:"rank"`
	UID        string    `json:"uid"`
	Username   string    `json:"username"`
	Score      int       `json:"score"`
	LastPlayed time.Time `json:"last_played"`
}
