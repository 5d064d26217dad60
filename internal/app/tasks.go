package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/san-kum/asynctui/internal/action"
	"github.com/san-kum/asynctui/internal/queue"
	"github.com/san-kum/asynctui/internal/shutdown"
	"github.com/san-kum/asynctui/internal/terminal"
)

// task is the join handle of one background goroutine.
type task struct {
	name string
	stop *shutdown.Signal
	done chan struct{}
	err  error
}

func spawn(name string, fn func(stop *shutdown.Signal) error) *task {
	t := &task{name: name, stop: shutdown.New(), done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer func() {
			if p := recover(); p != nil {
				t.err = fmt.Errorf("panic: %v", p)
			}
		}()
		t.err = fn(t.stop)
	}()
	return t
}

// join waits for the task and reports an abnormal exit.
func (t *task) join() error {
	<-t.done
	if t.err != nil {
		return &TaskError{Task: t.name, Err: t.err}
	}
	return nil
}

// render enters raw mode once and draws frames until stopped. The model lock
// is held only while the frame is built; the terminal write happens after it
// is released.
func (r *Runtime) render(stop *shutdown.Signal) (err error) {
	if err := r.term.Enter(); err != nil {
		return fmt.Errorf("%w: enter raw mode: %w", ErrTerminal, err)
	}
	defer func() {
		if exitErr := r.term.Exit(); exitErr != nil {
			err = errors.Join(err, fmt.Errorf("%w: exit raw mode: %w", ErrTerminal, exitErr))
		}
	}()

	var pace <-chan time.Time
	if d := r.cfg.FrameInterval(); d > 0 {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		pace = ticker.C
	}

	for {
		w, h := r.term.Size()
		f := terminal.NewFrame(w, h)
		r.model.with(func(m Model) { m.Render(f) })
		if err := r.term.Draw(f); err != nil {
			return fmt.Errorf("%w: draw: %w", ErrTerminal, err)
		}

		if pace == nil {
			if stop.Received() {
				return nil
			}
			runtime.Gosched()
			continue
		}
		select {
		case <-stop.Done():
			return nil
		case <-pace:
		}
	}
}

// events pulls raw events from the source, translates them through the
// model and forwards the resulting actions. Next is the only place the task
// blocks; the source's tick bounds it and ctx cancels it.
func (r *Runtime) events(ctx context.Context, q *queue.Queue[action.Action], stop *shutdown.Signal) error {
	src := r.newSource(r.cfg.TickInterval())
	for {
		ev, err := src.Next(ctx)
		if err != nil {
			stopErr := src.Stop()
			if ctx.Err() != nil {
				return stopErr
			}
			return errors.Join(fmt.Errorf("event source: %w", err), stopErr)
		}

		var a action.Action
		r.model.with(func(m Model) { a = m.Translate(ev) })

		if err := q.Send(a); err != nil {
			return errors.Join(fmt.Errorf("%w: %w", ErrQueue, err), src.Stop())
		}

		if stop.Received() {
			return src.Stop()
		}
	}
}
