// Package app is the runtime core. It owns the shared model, runs the
// render and event tasks, and drives the drain-and-dispatch loop over the
// action queue until the model asks to quit.
//
// # Concurrency
//
// Three goroutines touch the model: the render task, the event task and the
// goroutine calling [Runtime.Run]. Each holds the single model lock for one
// call (Render, Translate or Dispatch) and never across a channel operation
// or another lock, so a mutation is always observed whole.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/san-kum/asynctui/internal/action"
	"github.com/san-kum/asynctui/internal/config"
	"github.com/san-kum/asynctui/internal/event"
	"github.com/san-kum/asynctui/internal/home"
	"github.com/san-kum/asynctui/internal/queue"
	"github.com/san-kum/asynctui/internal/shutdown"
	"github.com/san-kum/asynctui/internal/terminal"
)

// Model is the shared application state driven by the runtime.
type Model interface {
	// SetSender installs the producer end of the action queue.
	SetSender(action.Sender)
	Init() error
	Render(f *terminal.Frame)
	Translate(ev event.Event) action.Action
	// Dispatch applies a and may return a follow-up action to enqueue.
	Dispatch(a action.Action) (action.Action, bool)
	ShouldQuit() bool
}

// Tracer receives every dispatched action except ticks.
type Tracer interface {
	Record(action.Action) error
}

// SourceFactory builds the event source for the event task.
type SourceFactory func(tickRate time.Duration) event.Source

// Stats summarizes a finished run.
type Stats struct {
	Dispatched int
	// Dropped counts actions still queued when the run ended.
	Dropped int
}

// shared guards the model with the one lock every party goes through.
type shared struct {
	mu sync.Mutex
	m  Model
}

func (s *shared) with(fn func(Model)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.m)
}

type Runtime struct {
	cfg       config.Config
	model     *shared
	term      terminal.Terminal
	newSource SourceFactory
	logger    *log.Logger
	tracer    Tracer
	homeOpts  []home.Option

	stats Stats
}

type Option func(*Runtime)

// WithModel replaces the default home model.
func WithModel(m Model) Option {
	return func(r *Runtime) {
		if m != nil {
			r.model = &shared{m: m}
		}
	}
}

// WithHomeOptions passes options to the default home model.
func WithHomeOptions(opts ...home.Option) Option {
	return func(r *Runtime) {
		r.homeOpts = append(r.homeOpts, opts...)
	}
}

func WithTerminal(t terminal.Terminal) Option {
	return func(r *Runtime) {
		if t != nil {
			r.term = t
		}
	}
}

func WithEventSource(f SourceFactory) Option {
	return func(r *Runtime) {
		if f != nil {
			r.newSource = f
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithTracer(t Tracer) Option {
	return func(r *Runtime) {
		if t != nil {
			r.tracer = t
		}
	}
}

// New builds the runtime and its model. Unless overridden, the terminal is a
// bubbletea program on the alternate screen and events come from it.
func New(cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStartup, err)
	}

	r := &Runtime{
		cfg:    *cfg,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if r.model == nil {
		hopts := append([]home.Option{
			home.WithScheduleDelay(cfg.ScheduleDelay),
			home.WithLogger(r.logger),
		}, r.homeOpts...)
		h, err := home.New(hopts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStartup, err)
		}
		r.model = &shared{m: h}
	}

	if r.term == nil {
		r.term = terminal.NewTea(tea.WithAltScreen(), tea.WithMouseCellMotion())
	}
	if r.newSource == nil {
		if t, ok := r.term.(*terminal.Tea); ok {
			r.newSource = func(d time.Duration) event.Source { return t.Events(d) }
		} else {
			r.newSource = func(d time.Duration) event.Source { return terminal.NewEventSource(d, nil) }
		}
	}
	return r, nil
}

// Stats reports counters of the last run. It is valid after Run returns.
func (r *Runtime) Stats() Stats {
	return r.stats
}

// Run wires the action queue into the model, starts the render and event
// tasks and dispatches actions until the model asks to quit, a task fails,
// or ctx is canceled. Both tasks are always joined before Run returns.
func (r *Runtime) Run(ctx context.Context) error {
	q := queue.New[action.Action]()
	defer q.Close()
	r.stats = Stats{}

	var initErr error
	r.model.with(func(m Model) {
		m.SetSender(q)
		initErr = m.Init()
	})
	if initErr != nil {
		return fmt.Errorf("%w: init: %w", ErrStartup, initErr)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	renderTask := spawn("render", r.render)
	eventTask := spawn("event", func(stop *shutdown.Signal) error {
		return r.events(ctx, q, stop)
	})
	r.logger.Info("runtime started", "tick_rate", r.cfg.TickInterval(), "frame_rate", r.cfg.FrameRate)

	finish := func(err error) error {
		r.stats.Dropped = q.Len()
		if err != nil {
			r.logger.Error("runtime stopped", "err", err, "dispatched", r.stats.Dispatched)
		} else {
			r.logger.Info("runtime stopped", "dispatched", r.stats.Dispatched, "dropped", r.stats.Dropped)
		}
		return err
	}

	for {
		quit, err := r.drain(q)
		if err != nil {
			cancel()
			return finish(errors.Join(err, r.shutdown(renderTask, eventTask)))
		}
		if quit {
			return finish(r.shutdown(renderTask, eventTask))
		}

		if q.Len() > 0 {
			// batch cap reached; let the tasks run before the next batch
			runtime.Gosched()
			continue
		}

		select {
		case <-q.Ready():
			continue
		case <-renderTask.done:
		case <-eventTask.done:
		case <-ctx.Done():
		}

		if err := ctx.Err(); err != nil {
			return finish(errors.Join(err, r.shutdown(renderTask, eventTask)))
		}
		cancel()
		return finish(r.abort(renderTask, eventTask))
	}
}

// drain dispatches up to one batch of queued actions. It stops as soon as
// the model wants to quit so no action is dispatched after that.
func (r *Runtime) drain(q *queue.Queue[action.Action]) (bool, error) {
	if r.shouldQuit() {
		return true, nil
	}
	for i := 0; i < r.cfg.DrainBatch; i++ {
		a, ok := q.TryRecv()
		if !ok {
			return false, nil
		}
		r.trace(a)

		var (
			follow    action.Action
			hasFollow bool
			quit      bool
		)
		r.model.with(func(m Model) {
			follow, hasFollow = m.Dispatch(a)
			quit = m.ShouldQuit()
		})
		r.stats.Dispatched++

		if hasFollow {
			if err := q.Send(follow); err != nil {
				return false, fmt.Errorf("%w: re-enqueue %s: %w", ErrQueue, follow, err)
			}
		}
		if quit {
			return true, nil
		}
	}
	return false, nil
}

func (r *Runtime) shouldQuit() bool {
	var quit bool
	r.model.with(func(m Model) { quit = m.ShouldQuit() })
	return quit
}

func (r *Runtime) trace(a action.Action) {
	if a.IsTick() {
		return
	}
	r.logger.Debug("dispatch", "action", a)
	if r.tracer != nil {
		if err := r.tracer.Record(a); err != nil {
			r.logger.Warn("trace not recorded", "action", a, "err", err)
		}
	}
}

// shutdown signals every task and joins all of them, even when an earlier
// join fails, so no task is left running.
func (r *Runtime) shutdown(tasks ...*task) error {
	for _, t := range tasks {
		t.stop.Send()
	}
	var errs []error
	for _, t := range tasks {
		if err := t.join(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var errEarlyExit = errors.New("exited before shutdown")

// abort stops every task after one of them exited on its own. A task that
// returned cleanly without being asked to stop still counts as a failure.
func (r *Runtime) abort(tasks ...*task) error {
	var errs []error
	for _, t := range tasks {
		select {
		case <-t.done:
			if t.err == nil {
				errs = append(errs, &TaskError{Task: t.name, Err: errEarlyExit})
			}
		default:
		}
	}
	return errors.Join(append(errs, r.shutdown(tasks...))...)
}
