package processor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"realtywizard/server/config"
	"realtywizard/server/internal/database"
	"realtywizard/server/internal/geocoding"
	"realtywizard/server/internal/queue"
)

// Transactor runs fc in a database transaction. *gorm.DB satisfies it.
type Transactor interface {
	Transaction(fc func(*gorm.DB) error, opts ...*sql.TxOptions) error
}

// Geocoder resolves an address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, addr geocoding.Address) (orb.Point, error)
}

// result is the outcome of geocoding one job. A nil point records a failed
// attempt.
type result struct {
	propertyID string
	point      *orb.Point
}

// BatchProcessor geocodes saved properties in the background and stores the
// coordinates.
type BatchProcessor struct {
	db       Transactor
	geocoder Geocoder
	logger   *logrus.Logger
	config   *config.Config
	queue    *queue.PropertyQueue
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, geocoder Geocoder, queue *queue.PropertyQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:       db,
		geocoder: geocoder,
		queue:    queue,
		config:   config,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to the queue and starts the configured number of workers.
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(p.processBatch)

	workers := p.config.BatchProcessing.ProcessorCount
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.queue.Start(p.ctx)
	}
	p.logger.WithField("workers", workers).Info("Geocoding processor started")
}

// Stop cancels running batches and waits for the workers to exit.
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.queue.Close()
}

// processBatch geocodes every job and then stores all results in one
// transaction, retrying the transaction on failure.
func (p *BatchProcessor) processBatch(ctx context.Context, batch []queue.Job) error {
	results := make([]result, 0, len(batch))
	for _, job := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		point, err := p.geocoder.Geocode(ctx, geocoding.Address{
			Street:     job.Street,
			Number:     job.Number,
			PostalCode: job.PostalCode,
			City:       job.City,
			State:      job.State,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.logger.WithError(err).WithField("property_id", job.PropertyID).Warn("Failed to geocode property")
			results = append(results, result{propertyID: job.PropertyID})
			continue
		}
		results = append(results, result{propertyID: job.PropertyID, point: &point})
	}

	var err error
	for attempt := 0; attempt <= p.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.BatchProcessing.MaxRetries)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second):
			}
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			for _, r := range results {
				if err := database.UpdateCoordinates(tx, r.propertyID, r.point); err != nil {
					return fmt.Errorf("failed to store coordinates of %s: %w", r.propertyID, err)
				}
			}
			return nil
		})

		if err == nil {
			p.logger.Infof("Successfully processed batch of %d properties", len(batch))
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", p.config.BatchProcessing.MaxRetries+1, err)
}
