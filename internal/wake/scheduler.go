package wake

import (
	"context"
	"sync"
	"time"

	"github.com/bhandras/agbridge/internal/clock"
	"github.com/bhandras/agbridge/internal/logger"
	"github.com/bhandras/agbridge/internal/metrics"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// State is the scheduler's externally visible condition.
type State string

const (
	StateIdle     State = "idle"
	StateInflight State = "inflight"
	StateBackoff  State = "backoff"
)

const (
	DefaultThrottle      = 2 * time.Second
	DefaultRetryInterval = 5 * time.Second
	DefaultMaxRetries    = 24
)

// Config tunes a Scheduler. Zero values take the defaults.
type Config struct {
	Throttle      time.Duration
	RetryInterval time.Duration
	MaxRetries    int
	Clock         clock.Clock
}

// Scheduler invokes a Waker at most once at a time and at most once per
// throttle window. A busy result starts a retry loop on a fixed interval; a
// success or any other failure cancels it.
type Scheduler struct {
	waker Waker
	cfg   Config
	clock clock.Clock

	// sem is the single-flight guard shared by Trigger and retry ticks.
	sem     *semaphore.Weighted
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight bool
	retrying bool
	attempts int
	gen      uint64
	timer    *clock.Timer
	stopped  bool
}

// NewScheduler returns an idle scheduler.
func NewScheduler(w Waker, cfg Config) *Scheduler {
	if cfg.Throttle <= 0 {
		cfg.Throttle = DefaultThrottle
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		waker:   w,
		cfg:     cfg,
		clock:   cfg.Clock,
		sem:     semaphore.NewWeighted(1),
		limiter: rate.NewLimiter(rate.Every(cfg.Throttle), 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// State reports the current scheduler state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.inflight:
		return StateInflight
	case s.retrying:
		return StateBackoff
	default:
		return StateIdle
	}
}

// Trigger requests a wake attempt without blocking. It is a no-op while an
// attempt is in flight or a retry loop is already running.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	switch {
	case s.stopped:
		s.mu.Unlock()
		return
	case s.inflight:
		s.mu.Unlock()
		metrics.WakeSkipped.WithLabelValues("inflight").Inc()
		return
	case s.retrying:
		s.mu.Unlock()
		metrics.WakeSkipped.WithLabelValues("backoff").Inc()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.attempt(false)
	}()
}

// Stop cancels any retry loop and waits for an in-flight attempt to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.stopRetryLocked()
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) attempt(isRetry bool) {
	if !s.sem.TryAcquire(1) {
		metrics.WakeSkipped.WithLabelValues("inflight").Inc()
		return
	}
	defer s.sem.Release(1)

	if !s.limiter.AllowN(s.clock.Now(), 1) {
		metrics.WakeSkipped.WithLabelValues("throttled").Inc()
		return
	}

	s.mu.Lock()
	s.inflight = true
	s.mu.Unlock()

	if !isRetry {
		logger.Infof("[POKE] Attempting to wake agent...")
	}
	res := s.waker.Wake(s.ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = false

	switch {
	case res.OK:
		metrics.WakeAttempts.WithLabelValues("ok").Inc()
		logger.Infof("[POKE] Success: %s", res.Method)
		s.stopRetryLocked()
	case res.Busy():
		metrics.WakeAttempts.WithLabelValues("busy").Inc()
		if !isRetry {
			logger.Infof("[POKE] Agent busy. Scheduling retries.")
		}
		s.startRetryLocked()
	default:
		metrics.WakeAttempts.WithLabelValues("failed").Inc()
		logger.Warnf("[POKE] Failed/Error: %s", res)
		s.stopRetryLocked()
	}
}

func (s *Scheduler) startRetryLocked() {
	if s.retrying || s.stopped {
		return
	}
	s.retrying = true
	s.attempts = 0
	s.gen++
	s.armLocked()
}

func (s *Scheduler) armLocked() {
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.cfg.RetryInterval, func() { s.tick(gen) })
}

func (s *Scheduler) stopRetryLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.retrying = false
	s.attempts = 0
	s.gen++
}

func (s *Scheduler) tick(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.retrying || s.stopped {
		s.mu.Unlock()
		return
	}
	s.attempts++
	if s.attempts > s.cfg.MaxRetries {
		logger.Infof("[POKE] Retry limit reached. Giving up.")
		s.stopRetryLocked()
		s.mu.Unlock()
		return
	}
	s.armLocked()
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	s.attempt(true)
}
