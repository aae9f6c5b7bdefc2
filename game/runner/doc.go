// Package runner drives one Tiletris game in real time.
//
// A Runner owns a single engine.GameEngine and is the only goroutine that
// touches it. Three sources feed its loop:
//   - commands posted by transports through Do, Exec, Reset, Pause and Resume
//   - a ticker that advances the falling piece every tick_interval_ms
//   - resolution timers armed by the engine through the Scheduler interface
//
// Resolution timers carry the engine generation they were armed in, so a
// Reset turns every outstanding timer into a no-op.
//
// Usage:
//
//	r := runner.New(eng, runner.WithHooks(runner.Hooks{
//		OnUpdate:   func(state *engine.GameState, events []engine.Event) { ... },
//		OnGameOver: func(state *engine.GameState) { ... },
//	}))
//	r.Start()
//	defer r.Stop()
//
//	changed, state, err := r.Exec(engine.CommandRotate)
package runner
