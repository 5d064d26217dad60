package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/asynctui/internal/action"
	"github.com/san-kum/asynctui/internal/config"
	"github.com/san-kum/asynctui/internal/event"
	"github.com/san-kum/asynctui/internal/home"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ = Describe("Runtime", func() {
	var (
		cfg    *config.Config
		term   *fakeTerminal
		model  *recordingModel
		src    *fakeSource
		tracer *recordingTracer
		logs   *syncBuffer
	)

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		cfg.TickRate = 1
		cfg.FrameRate = 200
		term = &fakeTerminal{}
		model = newRecordingModel()
		tracer = &recordingTracer{}
		logs = &syncBuffer{}
	})

	newRuntime := func(m Model, script ...event.Event) *Runtime {
		src = newFakeSource(time.Millisecond, script...)
		logger := log.NewWithOptions(logs, log.Options{Level: log.DebugLevel})
		rt, err := New(cfg,
			WithModel(m),
			WithTerminal(term),
			WithEventSource(func(time.Duration) event.Source { return src }),
			WithTracer(tracer),
			WithLogger(logger),
		)
		Expect(err).NotTo(HaveOccurred())
		return rt
	}

	runCtx := func(ctx context.Context, rt *Runtime) error {
		done := make(chan error, 1)
		go func() { done <- rt.Run(ctx) }()
		var err error
		Eventually(done, 5*time.Second).Should(Receive(&err))
		return err
	}

	run := func(rt *Runtime) error {
		return runCtx(context.Background(), rt)
	}

	counterScript := func(n int) ([]event.Event, []action.Action) {
		var names []string
		var want []action.Action
		for i := 1; i <= n; i++ {
			names = append(names, fmt.Sprintf("+%d", i))
			want = append(want, action.AddToCounter(uint(i)))
		}
		return keys(append(names, "q")...), append(want, action.Quit())
	}

	Describe("drain and dispatch", func() {
		It("dispatches every action exactly once in arrival order", func() {
			script, want := counterScript(50)
			rt := newRuntime(model, script...)

			Expect(run(rt)).To(Succeed())
			Expect(model.nonTicks()).To(Equal(want))
			Expect(rt.Stats().Dispatched).To(Equal(len(model.dispatched)))
		})

		It("loses nothing when the batch size is one", func() {
			cfg.DrainBatch = 1
			script, want := counterScript(20)
			rt := newRuntime(model, script...)

			Expect(run(rt)).To(Succeed())
			Expect(model.nonTicks()).To(Equal(want))
		})

		It("re-enqueues follow-up actions for a later dispatch", func() {
			model.follow[action.AddToCounter(1)] = action.AddToCounter(2)
			model.follow[action.AddToCounter(2)] = action.Quit()
			rt := newRuntime(model, keys("+1")...)

			Expect(run(rt)).To(Succeed())
			Expect(model.nonTicks()).To(Equal([]action.Action{
				action.AddToCounter(1), action.AddToCounter(2), action.Quit(),
			}))
		})
	})

	Describe("tracing", func() {
		It("traces every action except ticks", func() {
			model.quitAfterTicks = 5
			rt := newRuntime(model, keys("+1", "-1", "x")...)

			Expect(run(rt)).To(Succeed())
			Expect(model.ticks).To(BeNumerically(">=", 5))
			Expect(tracer.recorded()).To(Equal([]action.Action{
				action.AddToCounter(1), action.SubtractFromCounter(1), action.Noop(),
			}))
			Expect(logs.String()).To(ContainSubstring("AddToCounter(1)"))
			Expect(logs.String()).NotTo(ContainSubstring("action=Tick"))
		})
	})

	Describe("shutdown", func() {
		It("stops dispatching after quit and joins both tasks", func() {
			rt := newRuntime(model, keys("+1", "q", "+2", "+3")...)

			Expect(run(rt)).To(Succeed())
			Expect(model.nonTicks()).To(Equal([]action.Action{action.AddToCounter(1), action.Quit()}))

			entered, exited, draws := term.counts()
			Expect(entered).To(Equal(1))
			Expect(exited).To(Equal(1))
			Expect(draws).To(BeNumerically(">", 0))
			Expect(src.stopCount()).To(BeNumerically(">=", 1))
		})

		It("shuts down and joins both tasks when the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			rt := newRuntime(model)
			time.AfterFunc(20*time.Millisecond, cancel)

			err := runCtx(ctx, rt)
			Expect(err).To(MatchError(context.Canceled))

			_, exited, _ := term.counts()
			Expect(exited).To(Equal(1))
			Expect(src.stopCount()).To(BeNumerically(">=", 1))
		})
	})

	Describe("failures", func() {
		It("propagates an init failure before starting any task", func() {
			model.initErr = errors.New("boom")
			rt := newRuntime(model)

			err := run(rt)
			Expect(err).To(MatchError(ErrStartup))
			Expect(err.Error()).To(ContainSubstring("boom"))

			entered, _, _ := term.counts()
			Expect(entered).To(Equal(0))
		})

		It("reports a terminal failure as a task failure and still joins the event task", func() {
			term.enterErr = errors.New("no tty")
			rt := newRuntime(model)

			err := run(rt)
			Expect(err).To(MatchError(ErrTaskJoin))
			Expect(err).To(MatchError(ErrTerminal))

			var taskErr *TaskError
			Expect(errors.As(err, &taskErr)).To(BeTrue())
			Expect(taskErr.Task).To(Equal("render"))
			Expect(src.stopCount()).To(BeNumerically(">=", 1))
		})

		It("reports a draw failure and restores the terminal", func() {
			term.drawErr = errors.New("broken pipe")
			rt := newRuntime(model)

			err := run(rt)
			Expect(err).To(MatchError(ErrTerminal))
			_, exited, _ := term.counts()
			Expect(exited).To(Equal(1))
		})

		It("recovers a panicking task", func() {
			model.panicOn = true
			rt := newRuntime(model)

			err := run(rt)
			Expect(err).To(MatchError(ErrTaskJoin))
			Expect(err.Error()).To(ContainSubstring("render exploded"))
			_, exited, _ := term.counts()
			Expect(exited).To(Equal(1))
		})

		It("rejects an invalid configuration", func() {
			cfg.TickRate = 0
			_, err := New(cfg)
			Expect(err).To(MatchError(ErrStartup))
		})
	})

	Describe("model consistency", func() {
		It("never renders a partially applied mutation", func() {
			cfg.FrameRate = 0
			model.quitAfterTicks = 30
			var names []string
			want := 0
			for i := 0; i < 300; i++ {
				if i%3 == 0 {
					names = append(names, "-1")
					want--
				} else {
					names = append(names, "+2")
					want += 2
				}
			}
			rt := newRuntime(model, keys(names...)...)

			Expect(run(rt)).To(Succeed())
			Expect(model.renders).To(BeNumerically(">", 0))
			Expect(model.torn).To(BeZero())
			Expect(model.left).To(Equal(want))
			Expect(model.right).To(Equal(want))
		})
	})

	Describe("with the home model", func() {
		var h *home.Home

		BeforeEach(func() {
			var err error
			h, err = home.New(home.WithScheduleDelay(time.Millisecond))
			Expect(err).NotTo(HaveOccurred())
		})

		It("delivers a scheduled increment through the queue", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			rt := newRuntime(h, keys("j")...)

			done := make(chan error, 1)
			go func() { done <- rt.Run(ctx) }()

			Eventually(tracer.recorded, 5*time.Second).Should(ContainElement(action.AddToCounter(1)))
			cancel()
			var err error
			Eventually(done, 5*time.Second).Should(Receive(&err))
			Expect(err).To(MatchError(context.Canceled))

			recorded := tracer.recorded()
			Expect(recorded[0]).To(Equal(action.ScheduleIncrementCounter()))
			Expect(recorded).To(ContainElement(action.EnterProcessing()))
			Expect(h.Counter()).To(Equal(uint(1)))
		})

		It("shuts down on the drain cycle after Quit", func() {
			rt := newRuntime(h, keys("q")...)

			Expect(run(rt)).To(Succeed())
			Expect(h.ShouldQuit()).To(BeTrue())
			_, exited, _ := term.counts()
			Expect(exited).To(Equal(1))
		})
	})
})
