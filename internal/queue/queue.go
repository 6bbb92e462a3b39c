package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"realtywizard/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Job asks the background workers to geocode one saved property.
type Job struct {
	PropertyID string    `json:"property_id"`
	TenantID   string    `json:"tenant_id"`
	Street     string    `json:"street"`
	Number     string    `json:"number"`
	PostalCode string    `json:"postal_code"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// JobFor builds the geocoding job of a persisted property.
func JobFor(p *models.Property) Job {
	return Job{
		PropertyID: p.ID,
		TenantID:   p.TenantID,
		Street:     p.Street,
		Number:     p.Number,
		PostalCode: p.PostalCode,
		City:       p.City,
		State:      p.State,
		EnqueuedAt: time.Now(),
	}
}

// Handler processes one batch of jobs.
type Handler func(ctx context.Context, batch []Job) error

// PropertyQueue is an in-memory queue of job batches
type PropertyQueue struct {
	items    chan []Job
	done     chan struct{}
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	wg       sync.WaitGroup
	logger   *logrus.Logger
	handlers []Handler
}

// NewPropertyQueue creates a new queue with the specified buffer size
func NewPropertyQueue(bufferSize int, logger *logrus.Logger) *PropertyQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &PropertyQueue{
		items:    make(chan []Job, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]Handler, 0),
	}
}

// Push adds a batch of jobs to the queue
func (q *PropertyQueue) Push(jobs []Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	// Non-blocking send so a slow worker never stalls a save
	select {
	case q.items <- jobs:
		q.logger.WithField("batch_size", len(jobs)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Enqueue pushes the geocoding job of a single saved property.
func (q *PropertyQueue) Enqueue(p *models.Property) error {
	return q.Push([]Job{JobFor(p)})
}

// Subscribe adds a handler that will be called for each batch
func (q *PropertyQueue) Subscribe(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing batches until ctx is done or the queue is closed.
func (q *PropertyQueue) Start(ctx context.Context) {
	q.wg.Add(1)
	go q.process(ctx)
}

func (q *PropertyQueue) process(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.done:
			return
		case batch := <-q.items:
			q.processBatch(ctx, batch)
		}
	}
}

// processBatch sends the batch to all subscribed handlers
func (q *PropertyQueue) processBatch(ctx context.Context, batch []Job) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, batch); err != nil {
			q.logger.WithError(err).Error("Handler failed to process batch")
		}
	}
}

// Close stops the queue and prevents new batches from being added. Batches
// still buffered are dropped.
func (q *PropertyQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

// Len returns the current number of batches in the queue
func (q *PropertyQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *PropertyQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
