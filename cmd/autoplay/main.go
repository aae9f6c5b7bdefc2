// Command autoplay plays Tiletris through a running server's REST API. It
// creates (or resumes) a session, plays a number of games with a greedy
// placement strategy, and can publish the best score under a username.
package main

import (
	"bytes"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const sessionFile = ".session"

// Options are the autoplay settings
type Options struct {
	Games         int
	MaxPlacements int
	Username      string
	Delay         time.Duration
	Verbose       bool
}

// Summary is the outcome of a run
type Summary struct {
	Games     int
	BestScore int
	Scores    []int
	Submitted bool
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Game server URL")
	configName := flag.String("config", "", "Game configuration id (see /api/configs)")
	playerID := flag.String("player", "", "Player uid that finished games are recorded under")
	continueSession := flag.String("continue", "", "Resume playing an existing session by ID")
	games := flag.Int("games", 1, "Number of games to play")
	maxPlacements := flag.Int("max-placements", 500, "Stop a game after this many placements")
	username := flag.String("username", "", "Submit the best score under this name")
	verbose := flag.Bool("v", false, "Verbose output")
	delayMs := flag.Int("delay", 0, "Delay between placements in milliseconds (0 = no delay)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Connecting to game server at %s", *serverURL)
	client := NewClient(*serverURL)

	if err := openSession(ctx, client, *continueSession, *configName, *playerID); err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}

	summary, err := run(ctx, client, Options{
		Games:         *games,
		MaxPlacements: *maxPlacements,
		Username:      *username,
		Delay:         time.Duration(*delayMs) * time.Millisecond,
		Verbose:       *verbose,
	})
	if err != nil {
		log.Fatalf("Autoplay failed: %v", err)
	}

	log.Printf("Played %d games, best score %d (session %s)", summary.Games, summary.BestScore, client.SessionID())
}

// openSession resumes the given or saved session, or creates a new one and
// remembers it for the next run
func openSession(ctx context.Context, client *Client, continueID, configName, playerID string) error {
	savedSessionID := continueID
	if savedSessionID == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			savedSessionID = string(bytes.TrimSpace(data))
		}
	}

	if savedSessionID != "" {
		log.Printf("Resuming session: %s", savedSessionID)
		_, err := client.Resume(ctx, savedSessionID)
		if err == nil {
			return nil
		}
		log.Printf("Failed to resume session (may be expired): %v", err)
	}

	state, err := client.CreateSession(ctx, configName, playerID)
	if err != nil {
		return err
	}
	log.Printf("Session created: %s (%dx%d, %s)", client.SessionID(), state.Width, state.Height, state.ConfigName)

	if err := os.WriteFile(sessionFile, []byte(client.SessionID()), 0644); err != nil {
		log.Printf("Warning: Failed to save session ID: %v", err)
	}
	return nil
}

// run resets the session before every game, plays opts.Games games and
// submits the best finished score when a username is set
func run(ctx context.Context, client *Client, opts Options) (*Summary, error) {
	player := NewPlayer(client, NewStrategy())
	player.MaxPlacements = opts.MaxPlacements
	player.Delay = opts.Delay
	player.Verbose = opts.Verbose

	summary := &Summary{}
	bestFinished := -1
	for i := 1; i <= opts.Games; i++ {
		if _, err := client.Reset(ctx); err != nil {
			return summary, err
		}

		log.Printf("=== Game %d/%d ===", i, opts.Games)
		state, err := player.PlayGame(ctx)
		if err != nil {
			return summary, err
		}

		summary.Games++
		summary.Scores = append(summary.Scores, state.Score)
		if state.Score > summary.BestScore {
			summary.BestScore = state.Score
		}
		log.Printf("Game %d: score %d, placements %d, cities %d, game over %v",
			i, state.Score, state.Stats.Placements, state.Stats.CitiesCompleted, state.GameOver)

		// only the last game's state survives a reset, so submit as we go
		if opts.Username != "" && state.Settled() && state.Score > bestFinished && state.Score > 0 {
			profile, err := client.SubmitScore(ctx, opts.Username)
			if err != nil {
				log.Printf("Score not submitted: %v", err)
			} else {
				bestFinished = state.Score
				summary.Submitted = true
				log.Printf("Submitted %d for %s (best %d)", state.Score, profile.Username, profile.BestScore)
			}
		}
	}
	return summary, nil
}
