package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oghuzrustamli/iranisrael/internal/extract"
	"github.com/oghuzrustamli/iranisrael/internal/model"
)

// Extractor is the upstream inference call the scheduler serializes.
type Extractor interface {
	Extract(ctx context.Context, text string) (*extract.Result, error)
}

// StatusSink receives human-readable progress updates while the queue
// drains. Updates are best-effort display text, not state.
type StatusSink interface {
	UpdateStatus(status string)
}

type item struct {
	text    string
	retries int
	done    chan outcome
}

type outcome struct {
	res *extract.Result
	err error
}

// Scheduler serializes extraction requests to a rate-limited inference
// endpoint. At most one request is ever in flight; throttled requests are
// re-enqueued at the tail with exponential backoff, bounded by a retry
// cap. A drain admits at most MaxBatch requests and re-arms itself while
// work remains.
type Scheduler struct {
	extractor Extractor
	cfg       model.QueueConfig
	logger    *slog.Logger
	clock     clockwork.Clock

	mu         sync.Mutex
	queue      []*item
	retryDelay time.Duration
	running    bool
	status     string
	sink       StatusSink
}

// New creates a scheduler. Zero config fields fall back to the defaults
// from model.DefaultConfig.
func New(extractor Extractor, cfg model.QueueConfig, logger *slog.Logger) *Scheduler {
	def := model.DefaultConfig().Queue
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = def.MaxRetryDelay
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = def.MaxBatch
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		extractor:  extractor,
		cfg:        cfg,
		logger:     logger,
		clock:      clockwork.NewRealClock(),
		retryDelay: cfg.RetryDelay,
	}
}

// SetClock swaps the time source so tests can control backoff waits.
func (s *Scheduler) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	s.clock = c
}

// SetStatusSink registers an observer for progress text.
func (s *Scheduler) SetStatusSink(sink StatusSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// Submit enqueues text for extraction and blocks until the scheduler
// resolves or rejects it, or ctx expires. An abandoned request is still
// drained off the queue later.
func (s *Scheduler) Submit(ctx context.Context, text string) (*extract.Result, error) {
	it := &item{text: text, done: make(chan outcome, 1)}

	s.mu.Lock()
	s.queue = append(s.queue, it)
	s.mu.Unlock()

	go s.drain()

	select {
	case o := <-it.done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports the number of queued requests, including any in flight.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Status returns the current progress text; empty when idle.
func (s *Scheduler) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CurrentDelay exposes the adaptive inter-request delay.
func (s *Scheduler) CurrentDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retryDelay
}

// drain processes one batch from the queue head. The running flag is the
// re-entrancy guard: overlapping triggers are no-ops.
func (s *Scheduler) drain() {
	s.mu.Lock()
	if s.running || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	s.running = true
	n := min(s.cfg.MaxBatch, len(s.queue))
	batch := make([]*item, n)
	copy(batch, s.queue[:n])
	s.mu.Unlock()

	defer s.finish()

	for i, it := range batch {
		s.setStatus(fmt.Sprintf("processing %d/%d", i+1, n))

		// Politeness delay before every request except the first.
		if i > 0 {
			s.clock.Sleep(s.CurrentDelay())
		}

		res, err := s.extractor.Extract(context.Background(), it.text)
		if err == nil {
			s.remove(it)
			it.done <- outcome{res: res}
			continue
		}

		var rle *extract.RateLimitError
		if errors.As(err, &rle) && it.retries < s.cfg.MaxRetries {
			delay := s.backoff(it)
			s.logger.Warn("rate limited, backing off",
				"delay", delay, "retries", it.retries)
			s.setStatus(fmt.Sprintf("rate limited, waiting %s", delay))
			s.clock.Sleep(delay)
			continue
		}

		s.logger.Warn("dropping extraction request", "error", err)
		s.remove(it)
		it.done <- outcome{err: err}
	}
}

// finish clears the running flag and re-arms a drain when work remains.
func (s *Scheduler) finish() {
	s.mu.Lock()
	s.running = false
	remaining := len(s.queue)
	delay := s.retryDelay
	s.mu.Unlock()

	s.setStatus("")

	if remaining > 0 {
		go func() {
			s.clock.Sleep(delay)
			s.drain()
		}()
	}
}

// backoff doubles the shared delay up to the cap and moves the item to
// the queue tail with its retry count incremented.
func (s *Scheduler) backoff(it *item) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retryDelay = min(s.retryDelay*2, s.cfg.MaxRetryDelay)
	it.retries++
	for i, queued := range s.queue {
		if queued == it {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	s.queue = append(s.queue, it)
	return s.retryDelay
}

func (s *Scheduler) remove(it *item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, queued := range s.queue {
		if queued == it {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

func (s *Scheduler) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	sink := s.sink
	s.mu.Unlock()
	if sink != nil {
		sink.UpdateStatus(status)
	}
}
