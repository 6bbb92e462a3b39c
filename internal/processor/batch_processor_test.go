package processor

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"realtywizard/server/config"
	"realtywizard/server/internal/geocoding"
	"realtywizard/server/internal/queue"
)

// MockDB is a mock implementation of Transactor
type MockDB struct {
	mock.Mock
}

func (m *MockDB) Transaction(fc func(*gorm.DB) error, opts ...*sql.TxOptions) error {
	args := m.Called(fc)
	return args.Error(0)
}

// MockGeocoder is a mock implementation of Geocoder
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, addr geocoding.Address) (orb.Point, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(orb.Point), args.Error(1)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.BatchProcessing.ProcessorCount = 2
	cfg.BatchProcessing.MaxRetries = 2
	cfg.BatchProcessing.RetryDelay = 0
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testJobs() []queue.Job {
	return []queue.Job{
		{PropertyID: "p1", Street: "Avenida Paulista", Number: "1000", City: "São Paulo", State: "SP"},
		{PropertyID: "p2", Street: "Rua Augusta", Number: "10", City: "São Paulo", State: "SP"},
	}
}

func TestNewBatchProcessor(t *testing.T) {
	mockDB := &MockDB{}
	geo := &MockGeocoder{}
	q := queue.NewPropertyQueue(10, nil)
	cfg := testConfig()
	logger := quietLogger()

	processor := NewBatchProcessor(mockDB, geo, q, cfg, logger)

	assert.NotNil(t, processor)
	assert.Equal(t, mockDB, processor.db)
	assert.Equal(t, q, processor.queue)
	assert.Equal(t, cfg, processor.config)
	assert.Equal(t, logger, processor.logger)
}

func TestBatchProcessor_ProcessBatch(t *testing.T) {
	mockDB := &MockDB{}
	geo := &MockGeocoder{}
	processor := NewBatchProcessor(mockDB, geo, queue.NewPropertyQueue(10, nil), testConfig(), quietLogger())

	geo.On("Geocode", mock.Anything, mock.Anything).Return(orb.Point{-46.65, -23.56}, nil)

	mockDB.On("Transaction", mock.Anything).Return(nil).Once()
	err := processor.processBatch(context.Background(), testJobs())
	assert.NoError(t, err)
	geo.AssertNumberOfCalls(t, "Geocode", 2)

	// Test retry on failure
	mockDB.On("Transaction", mock.Anything).Return(errors.New("db error")).Times(3)
	err = processor.processBatch(context.Background(), testJobs())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process batch after 3 attempts")
	mockDB.AssertExpectations(t)
}

func TestBatchProcessor_GeocodeFailureStillRecorded(t *testing.T) {
	mockDB := &MockDB{}
	geo := &MockGeocoder{}
	processor := NewBatchProcessor(mockDB, geo, queue.NewPropertyQueue(10, nil), testConfig(), quietLogger())

	geo.On("Geocode", mock.Anything, mock.Anything).Return(orb.Point{}, geocoding.ErrNoResults)
	mockDB.On("Transaction", mock.Anything).Return(nil).Once()

	assert.NoError(t, processor.processBatch(context.Background(), testJobs()))
	mockDB.AssertExpectations(t)
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	mockDB := &MockDB{}
	geo := &MockGeocoder{}
	processor := NewBatchProcessor(mockDB, geo, queue.NewPropertyQueue(10, nil), testConfig(), quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := processor.processBatch(ctx, testJobs())
	assert.ErrorIs(t, err, context.Canceled)
	geo.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
	mockDB.AssertNotCalled(t, "Transaction", mock.Anything)
}

func TestBatchProcessor_StartStop(t *testing.T) {
	mockDB := &MockDB{}
	q := queue.NewPropertyQueue(10, nil)
	processor := NewBatchProcessor(mockDB, &MockGeocoder{}, q, testConfig(), quietLogger())

	processor.Start()
	processor.Stop()

	assert.True(t, q.IsClosed())
	assert.ErrorIs(t, q.Push(testJobs()), queue.ErrQueueClosed)
}
