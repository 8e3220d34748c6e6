// Package worker provides an asynchronous worker pool for recording completed
// relay turns in the workspace store and publishing them to the event stream.
//
// The pool decouples persistence from the relay's HTTP hot path so a slow or
// failing store never delays or breaks a streaming response.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/quill/pkg/eventstream"
	"github.com/papercomputeco/quill/pkg/llm"
	"github.com/papercomputeco/quill/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
	defaultJobTimeout        = 30 * time.Second
)

// Job is one completed turn waiting to be recorded.
type Job struct {
	Provider    string
	Model       string
	Messages    []llm.ChatMessage
	Response    string
	StartedAt   time.Time
	CompletedAt time.Time
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Store persists turns. Required.
	Store storage.TurnStore

	// Publisher receives a TurnCompletedEvent after each stored turn.
	// Optional; nil disables publishing.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// JobTimeout bounds the store and publish calls of a single job.
	JobTimeout time.Duration

	Logger *slog.Logger
}

// Pool processes turn recording jobs asynchronously.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Store == nil {
		return nil, fmt.Errorf("worker pool requires a turn store")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full or the pool is closed,
// resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("job not queued, pool closed, job dropped",
			"provider", job.Provider,
			"model", job.Model,
		)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"provider", job.Provider,
			"model", job.Model,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"provider", job.Provider,
			"model", job.Model,
		)
		return false
	}
}

// Close signals workers to stop and waits for queued jobs to drain.
// Call this during graceful shutdown after the relay HTTP server has stopped.
// Jobs enqueued afterwards are dropped.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob stores the turn and then publishes it. Failures are logged only.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	turn := &storage.Turn{
		ID:          uuid.NewString(),
		Model:       job.Model,
		Provider:    job.Provider,
		Messages:    job.Messages,
		Response:    job.Response,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}

	if err := p.config.Store.SaveTurn(ctx, turn); err != nil {
		p.logger.Error("turn storage failed",
			"provider", job.Provider,
			"model", job.Model,
			"error", err,
		)
		return
	}

	p.logger.Info("turn stored",
		"turn_id", turn.ID,
		"provider", job.Provider,
		"model", job.Model,
	)

	if p.config.Publisher == nil {
		return
	}

	if err := p.config.Publisher.PublishTurn(ctx, newTurnEvent(turn)); err != nil {
		p.logger.Warn("turn event publish failed",
			"turn_id", turn.ID,
			"error", err,
		)
	}
}

func newTurnEvent(turn *storage.Turn) *eventstream.TurnCompletedEvent {
	return &eventstream.TurnCompletedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: eventstream.EventSource{
			Provider: turn.Provider,
			Model:    turn.Model,
		},
		RequestMeta: eventstream.TurnRequestMeta{
			StartedAt:   turn.StartedAt,
			CompletedAt: turn.CompletedAt,
			DurationMs:  turn.CompletedAt.Sub(turn.StartedAt).Milliseconds(),
		},
		Turn: eventstream.TurnPayload{
			ID:       turn.ID,
			Messages: turn.Messages,
			Response: turn.Response,
		},
	}
}
