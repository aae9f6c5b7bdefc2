package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wricardo/mcp-training/tiletris/game/engine"
)

// Player drives one session until its game ends
type Player struct {
	client        *Client
	strategy      *Strategy
	MaxPlacements int
	Delay         time.Duration
	PollInterval  time.Duration
	Verbose       bool
}

func NewPlayer(client *Client, strategy *Strategy) *Player {
	return &Player{
		client:        client,
		strategy:      strategy,
		MaxPlacements: 500,
		PollInterval:  100 * time.Millisecond,
	}
}

func (p *Player) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PlayGame places pieces until the game is over and settled, or until
// MaxPlacements pieces were placed. The session's own ticks keep running,
// so a command sequence may stop early; the next round starts from the
// fresh state.
func (p *Player) PlayGame(ctx context.Context) (*engine.GameState, error) {
	for {
		state, err := p.client.GetState(ctx)
		if err != nil {
			return nil, err
		}

		if state.GameOver {
			return p.waitSettled(ctx, state)
		}
		if p.MaxPlacements > 0 && state.Stats.Placements >= p.MaxPlacements {
			return state, nil
		}
		if state.Piece == nil {
			// spawn waits for a pending resolution
			if err := p.sleep(ctx, p.PollInterval); err != nil {
				return state, err
			}
			continue
		}

		options, err := p.client.Placements(ctx)
		if err != nil {
			return nil, err
		}
		commands := []engine.Command{engine.CommandDrop}
		if opt, ok := p.strategy.Choose(state, options); ok {
			commands = opt.Commands
			if p.Verbose {
				log.Printf("placing %s at (%d,%d) r%d, matches %d",
					state.Piece.Kind, opt.Position.X, opt.Position.Y, opt.Rotation, opt.Matches)
			}
		}

		result, err := p.client.BulkCommands(ctx, commands)
		if err != nil {
			return nil, err
		}
		if p.Verbose && result.StopReasonCode != "" && result.StopReasonCode != "game_over" {
			log.Printf("sequence stopped at command %d: %s", result.StoppedOnCommand, result.StoppedReason)
		}

		if err := p.sleep(ctx, p.Delay); err != nil {
			return result.GameState, err
		}
	}
}

// waitSettled polls until every pending resolution of a finished game ran
func (p *Player) waitSettled(ctx context.Context, state *engine.GameState) (*engine.GameState, error) {
	for !state.Settled() {
		if err := p.sleep(ctx, p.PollInterval); err != nil {
			return state, fmt.Errorf("waiting for final resolutions: %w", err)
		}
		next, err := p.client.GetState(ctx)
		if err != nil {
			return nil, err
		}
		state = next
	}
	return state, nil
}
