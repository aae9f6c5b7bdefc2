package runner

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/mcp-training/tiletris/game/engine"
)

// onlyKind builds a config that always draws kind and spawns in column 0
func onlyKind(t *testing.T, kind engine.TileKind, resolveDelayMs int) *engine.GameConfig {
	t.Helper()
	config := engine.DefaultGameConfig()
	spawn := 0
	config.SpawnColumn = &spawn
	config.ResolveDelayMs = resolveDelayMs
	config.Seed = 3
	config.TileWeights = map[engine.TileKind]int{}
	for _, k := range engine.DefaultCatalog().Kinds() {
		config.TileWeights[k] = 0
	}
	config.TileWeights[kind] = 1
	require.NoError(t, engine.ValidateGameConfig(config))
	return config
}

func startRunner(t *testing.T, config *engine.GameConfig, opts ...Option) *Runner {
	t.Helper()
	e, err := engine.NewEngine(config)
	require.NoError(t, err)
	r := New(e, opts...)
	r.Start()
	t.Cleanup(r.Stop)
	return r
}

func exec(t *testing.T, r *Runner, cmds ...engine.Command) *engine.GameState {
	t.Helper()
	var state *engine.GameState
	for _, cmd := range cmds {
		var err error
		_, state, err = r.Exec(cmd)
		require.NoError(t, err)
	}
	return state
}

// buildCity settles a city cap facing east at (3,7) and one facing west at (4,7)
func buildCity(t *testing.T, r *Runner) *engine.GameState {
	t.Helper()
	exec(t, r, engine.CommandRotate, engine.CommandRight, engine.CommandRight, engine.CommandRight, engine.CommandDrop)
	require.Eventually(t, func() bool {
		state, err := r.State()
		return err == nil && state.Piece != nil && state.PendingResolutions == 0
	}, time.Second, 5*time.Millisecond)
	return exec(t, r,
		engine.CommandRotate, engine.CommandRotate, engine.CommandRotate,
		engine.CommandRight, engine.CommandRight, engine.CommandRight, engine.CommandRight,
		engine.CommandDrop)
}

func TestRunnerResolvesAfterDelay(t *testing.T) {
	r := startRunner(t, onlyKind(t, engine.CityCap, 30), WithTickInterval(0))

	state := buildCity(t, r)
	assert.Equal(t, []int{1, 2}, state.Removing)
	assert.Equal(t, 0, state.Score)
	assert.Equal(t, engine.PhaseResolving, state.Phase)

	require.Eventually(t, func() bool {
		state, err := r.State()
		return err == nil && state.Score == 4
	}, time.Second, 5*time.Millisecond)

	state, err := r.State()
	require.NoError(t, err)
	assert.Nil(t, state.Board[7][3])
	assert.Nil(t, state.Board[7][4])
	assert.Empty(t, state.Removing)
}

func TestRunnerResetIgnoresStaleTimer(t *testing.T) {
	r := startRunner(t, onlyKind(t, engine.CityCap, 80), WithTickInterval(0))

	buildCity(t, r)
	state, err := r.Reset()
	require.NoError(t, err)
	assert.Equal(t, 0, state.PendingResolutions)

	time.Sleep(200 * time.Millisecond)
	state, err = r.State()
	require.NoError(t, err)
	assert.Equal(t, 0, state.Score)
	assert.Equal(t, 0, state.Stats.Placements)
}

func TestRunnerHooks(t *testing.T) {
	var (
		mu      sync.Mutex
		types   []engine.EventType
		overs   []*engine.GameState
		updates int
	)
	hooks := Hooks{
		OnUpdate: func(state *engine.GameState, events []engine.Event) {
			mu.Lock()
			defer mu.Unlock()
			updates++
			for _, ev := range events {
				types = append(types, ev.Type)
			}
		},
		OnGameOver: func(state *engine.GameState) {
			mu.Lock()
			defer mu.Unlock()
			overs = append(overs, state)
		},
	}
	r := startRunner(t, onlyKind(t, engine.Monastery, 0), WithTickInterval(0), WithHooks(hooks))

	// eight monasteries fill the spawn column
	for i := 0; i < 8; i++ {
		exec(t, r, engine.CommandDrop)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(overs) == 1
	}, time.Second, 5*time.Millisecond)

	// a read produces no update
	mu.Lock()
	before := updates
	mu.Unlock()
	_, err := r.State()
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, before, updates)
	assert.True(t, overs[0].GameOver)
	assert.True(t, overs[0].Settled())
	assert.Equal(t, 8, overs[0].Stats.Placements)
	assert.Contains(t, types, engine.EventPlaced)
	assert.Contains(t, types, engine.EventResolved)
	assert.Equal(t, engine.EventGameOver, types[len(types)-1])
}

func TestRunnerTicksAndPauses(t *testing.T) {
	r := startRunner(t, onlyKind(t, engine.Monastery, 0), WithTickInterval(10*time.Millisecond))

	require.Eventually(t, func() bool {
		state, err := r.State()
		return err == nil && (state.Stats.Placements > 0 || (state.Piece != nil && state.Piece.Position.Y > 0))
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Pause())
	paused, err := r.Paused()
	require.NoError(t, err)
	assert.True(t, paused)

	before, err := r.State()
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	after, err := r.State()
	require.NoError(t, err)
	assert.Equal(t, before.Piece, after.Piece)
	assert.Equal(t, before.Stats.Placements, after.Stats.Placements)

	// commands still work while paused
	changed, _, err := r.Exec(engine.CommandDown)
	require.NoError(t, err)
	assert.True(t, changed)

	require.NoError(t, r.Resume())
	require.Eventually(t, func() bool {
		state, err := r.State()
		return err == nil && state.Stats.Placements > after.Stats.Placements
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRunnerExport(t *testing.T) {
	r := startRunner(t, onlyKind(t, engine.Monastery, 0), WithTickInterval(0))
	exec(t, r, engine.CommandDrop)

	saved, err := r.Export()
	require.NoError(t, err)
	assert.Equal(t, 2, saved.NextTileID)
	assert.NotEmpty(t, saved.RNG)
}

func TestRunnerUnknownCommand(t *testing.T) {
	r := startRunner(t, onlyKind(t, engine.Monastery, 0), WithTickInterval(0))

	_, state, err := r.Exec(engine.Command("jump"))
	assert.ErrorIs(t, err, engine.ErrUnknownCommand)
	assert.NotNil(t, state)
}

func TestRunnerStop(t *testing.T) {
	e, err := engine.NewEngine(onlyKind(t, engine.Monastery, 0))
	require.NoError(t, err)
	r := New(e, WithTickInterval(0))
	r.Start()
	r.Stop()
	r.Stop()

	_, _, err = r.Exec(engine.CommandLeft)
	assert.ErrorIs(t, err, ErrStopped)
	_, err = r.State()
	assert.ErrorIs(t, err, ErrStopped)
}
