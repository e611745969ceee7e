// Package scheduler drives the wallpaper cycle on a fixed cadence. Exactly one
// cycle is in flight at a time: the next timer is only armed after the
// previous cycle returned, so the interval is measured from completion.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	slogcontext "github.com/veqryn/slog-context"
	"k8s.io/utils/clock"

	"github.com/five82/apodwall/internal/fault"
)

// DefaultInterval is the delay between the end of one cycle and the start of the next.
const DefaultInterval = time.Hour

// ErrStopped is returned by Run when the scheduler was already stopped.
var ErrStopped = errors.New("scheduler stopped")

// Job is one cycle of work. It must honour ctx cancellation.
type Job func(ctx context.Context) error

// Observer is told about lifecycle transitions. Implementations must be safe
// for use from the scheduler goroutine while other goroutines read them.
type Observer interface {
	CycleStarted(at time.Time)
	CycleFinished(at time.Time, err error)
	Scheduled(next time.Time)
	Stopped()
}

// State is the scheduler's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Options configure a Scheduler. Zero values pick defaults.
type Options struct {
	Interval time.Duration
	// CycleTimeout bounds a single cycle. Zero means no bound beyond Stop.
	CycleTimeout time.Duration
	Clock        clock.Clock
	Observer     Observer
	Logger       *slog.Logger
}

// Scheduler owns the loop, the next deadline and the stop flag.
type Scheduler struct {
	job      Job
	interval time.Duration
	timeout  time.Duration
	clock    clock.Clock
	observer Observer
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	next     time.Time
	stopped  bool
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
}

// New returns an idle Scheduler for job.
func New(job Job, opts Options) *Scheduler {
	s := &Scheduler{
		job:      job,
		interval: opts.Interval,
		timeout:  opts.CycleTimeout,
		clock:    opts.Clock,
		observer: opts.Observer,
		logger:   opts.Logger,
		done:     make(chan struct{}),
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Run executes the first cycle immediately, then one cycle per interval after
// each completion, until ctx is cancelled or Stop is called. Cycle failures
// never end the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	switch {
	case s.stopped:
		s.mu.Unlock()
		s.closeDone()
		return ErrStopped
	case s.running:
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	s.running = true
	s.cancel = cancel
	s.mu.Unlock()
	defer s.finish()

	s.logger.Info("scheduler started", "interval", s.interval, "cycle_timeout", s.timeout)

	var timer clock.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		// Stop may race with a timer that already fired.
		if ctx.Err() != nil {
			return nil
		}
		_ = s.runCycle(ctx)

		t, ok := s.arm(ctx)
		if !ok {
			return nil
		}
		timer = t

		select {
		case <-ctx.Done():
			return nil
		case <-timer.C():
		}
	}
}

// RunOnce executes a single cycle with the same isolation as Run and returns
// its error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.runCycle(ctx)
}

// Stop cancels the in-flight cycle and prevents any further cycle. It does not
// wait; use Done for that.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done is closed when Run returns, including a Run refused because the
// scheduler was already stopped. A second concurrent Run does not close it.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// State reports the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextRun returns when the armed timer fires, or the zero time when none is armed.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// arm schedules the next cycle unless a stop was requested. The stop flag is
// checked under the same lock Stop takes, so no timer is armed after Stop.
func (s *Scheduler) arm(ctx context.Context) (clock.Timer, bool) {
	s.mu.Lock()
	if s.stopped || ctx.Err() != nil {
		s.mu.Unlock()
		return nil, false
	}
	next := s.clock.Now().Add(s.interval)
	timer := s.clock.NewTimer(s.interval)
	s.state = StateIdle
	s.next = next
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.Scheduled(next)
	}
	s.logger.Debug("next cycle scheduled", "at", next)
	return timer, true
}

func (s *Scheduler) closeDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Scheduler) finish() {
	s.mu.Lock()
	s.state = StateStopped
	s.stopped = true
	s.next = time.Time{}
	s.cancel = nil
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.Stopped()
	}
	s.logger.Info("scheduler stopped")
	s.closeDone()
}

// runCycle is the error boundary: every failure, panics included, ends here.
func (s *Scheduler) runCycle(ctx context.Context) (err error) {
	cycleCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	logger := s.logger.With("cycle", uuid.NewString())
	cycleCtx = slogcontext.NewCtx(cycleCtx, logger)

	start := s.clock.Now()
	s.mu.Lock()
	s.state = StateRunning
	s.next = time.Time{}
	s.mu.Unlock()
	if s.observer != nil {
		s.observer.CycleStarted(start)
	}

	err = s.safeRun(cycleCtx)

	end := s.clock.Now()
	switch {
	case err == nil:
		logger.Info("cycle finished", "duration", end.Sub(start))
	case fault.IsCancelled(err):
		logger.Info("cycle cancelled", "duration", end.Sub(start))
	default:
		logger.Warn("cycle failed", "kind", fault.KindOf(err).String(), "error", err, "duration", end.Sub(start))
	}
	if s.observer != nil {
		s.observer.CycleFinished(end, err)
	}
	return err
}

func (s *Scheduler) safeRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()
	if s.job == nil {
		return errors.New("scheduler has no job")
	}
	return s.job(ctx)
}
