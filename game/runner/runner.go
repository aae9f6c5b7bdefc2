package runner

import (
	"errors"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/tiletris/game/engine"
)

// ErrStopped is returned by operations on a stopped runner
var ErrStopped = errors.New("runner stopped")

// Hooks are invoked on the runner goroutine. A hook must not call back into
// the runner synchronously.
type Hooks struct {
	// OnUpdate runs after every operation that produced engine events
	OnUpdate func(state *engine.GameState, events []engine.Event)
	// OnGameOver runs once per game, after it ended and every pending
	// resolution has been applied
	OnGameOver func(state *engine.GameState)
}

// Option configures a Runner
type Option func(*Runner)

// WithTickInterval overrides the configuration's descent period. Zero
// disables automatic descent.
func WithTickInterval(d time.Duration) Option {
	return func(r *Runner) { r.tick = d }
}

// WithHooks installs hooks at construction
func WithHooks(h Hooks) Option {
	return func(r *Runner) { r.hooks = h }
}

// Runner owns one engine and serialises every access to it on a single
// goroutine: commands, descent ticks and resolution timers.
type Runner struct {
	engine *engine.GameEngine
	tick   time.Duration

	ops  chan func()
	done chan struct{}
	wg   sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once

	hooksMu sync.RWMutex
	hooks   Hooks

	// loop goroutine only
	ticker   *time.Ticker
	paused   bool
	timers   map[*time.Timer]struct{}
	events   []engine.Event
	reported bool
}

// New wraps e. The runner becomes the engine's scheduler and observer, so e
// must not be used directly afterwards.
func New(e *engine.GameEngine, opts ...Option) *Runner {
	r := &Runner{
		engine: e,
		tick:   e.GetConfig().TickInterval(),
		ops:    make(chan func()),
		done:   make(chan struct{}),
		timers: make(map[*time.Timer]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	e.SetScheduler(r)
	e.AddObserver(r)
	return r
}

// SetHooks replaces the hooks
func (r *Runner) SetHooks(h Hooks) {
	r.hooksMu.Lock()
	defer r.hooksMu.Unlock()
	r.hooks = h
}

func (r *Runner) currentHooks() Hooks {
	r.hooksMu.RLock()
	defer r.hooksMu.RUnlock()
	return r.hooks
}

// Start launches the loop. Operations block until it runs.
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.loop()
	})
}

// Stop ends the loop and cancels pending timers. It must not be called from
// a hook.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
}

func (r *Runner) loop() {
	defer r.wg.Done()

	var tickC <-chan time.Time
	if r.tick > 0 {
		r.ticker = time.NewTicker(r.tick)
		defer r.ticker.Stop()
		tickC = r.ticker.C
	}

	for {
		select {
		case <-r.done:
			for t := range r.timers {
				t.Stop()
			}
			return
		case op := <-r.ops:
			op()
		case <-tickC:
			if r.paused {
				continue
			}
			r.apply(func(e *engine.GameEngine) { e.Tick() })
		}
	}
}

// post hands op to the loop, or drops it once the runner stopped
func (r *Runner) post(op func()) bool {
	select {
	case r.ops <- op:
		return true
	case <-r.done:
		return false
	}
}

// apply runs fn and reports what it caused to the hooks
func (r *Runner) apply(fn func(e *engine.GameEngine)) {
	fn(r.engine)
	if len(r.events) == 0 {
		return
	}
	events := r.events
	r.events = nil

	hooks := r.currentHooks()
	state := r.engine.GetState()
	if hooks.OnUpdate != nil {
		hooks.OnUpdate(state, events)
	}
	if state.GameOver && state.Settled() && !r.reported {
		r.reported = true
		if hooks.OnGameOver != nil {
			hooks.OnGameOver(state)
		}
	}
}

// OnEngineEvent collects events until the current operation finishes
func (r *Runner) OnEngineEvent(ev engine.Event) {
	if ev.Type == engine.EventReset {
		r.reported = false
	}
	r.events = append(r.events, ev)
}

// ScheduleResolution arms a timer that resolves on the loop. A reset in the
// meantime makes the engine ignore it.
func (r *Runner) ScheduleResolution(generation uint64, delay time.Duration) {
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		r.post(func() {
			delete(r.timers, t)
			r.apply(func(e *engine.GameEngine) { e.ResolveScheduled(generation) })
		})
	})
	r.timers[t] = struct{}{}
}

// Do runs fn on the loop and waits for it
func (r *Runner) Do(fn func(e *engine.GameEngine)) error {
	reply := make(chan struct{})
	if !r.post(func() {
		r.apply(fn)
		close(reply)
	}) {
		return ErrStopped
	}
	select {
	case <-reply:
		return nil
	case <-r.done:
		return ErrStopped
	}
}

// State returns a snapshot of the game
func (r *Runner) State() (*engine.GameState, error) {
	var state *engine.GameState
	err := r.Do(func(e *engine.GameEngine) { state = e.GetState() })
	return state, err
}

// Exec applies one command
func (r *Runner) Exec(cmd engine.Command) (bool, *engine.GameState, error) {
	var (
		changed bool
		state   *engine.GameState
		cmdErr  error
	)
	err := r.Do(func(e *engine.GameEngine) {
		changed, cmdErr = e.Apply(cmd)
		state = e.GetState()
	})
	if err != nil {
		return false, nil, err
	}
	return changed, state, cmdErr
}

// Reset starts a new game on the loop
func (r *Runner) Reset() (*engine.GameState, error) {
	var state *engine.GameState
	err := r.Do(func(e *engine.GameEngine) { state = e.Reset() })
	return state, err
}

// Export captures the game for persistence
func (r *Runner) Export() (*engine.SavedGame, error) {
	var (
		saved     *engine.SavedGame
		exportErr error
	)
	if err := r.Do(func(e *engine.GameEngine) { saved, exportErr = e.Export() }); err != nil {
		return nil, err
	}
	return saved, exportErr
}

// Pause stops automatic descent. Commands and resolutions keep working.
func (r *Runner) Pause() error {
	return r.Do(func(*engine.GameEngine) { r.setPaused(true) })
}

// Resume restarts automatic descent
func (r *Runner) Resume() error {
	return r.Do(func(*engine.GameEngine) { r.setPaused(false) })
}

// Paused reports whether automatic descent is stopped
func (r *Runner) Paused() (bool, error) {
	var paused bool
	err := r.Do(func(*engine.GameEngine) { paused = r.paused })
	return paused, err
}

func (r *Runner) setPaused(p bool) {
	if r.paused == p {
		return
	}
	r.paused = p
	if r.ticker == nil {
		return
	}
	if p {
		r.ticker.Stop()
	} else {
		r.ticker.Reset(r.tick)
	}
}
