package client

import (
	"github.com/matrixorigin/batchstore/util/uuid"
	"go.uber.org/zap"
)

// Option the option to create a batch client
type Option func(*batchClient)

// WithLogger set logger for the batch client
func WithLogger(logger *zap.Logger) Option {
	return func(c *batchClient) {
		c.logger = logger.Named("batch")
	}
}

// WithMaxRetries set the max number of attempts RunInBatch performs before
// giving up on commit conflicts.
func WithMaxRetries(maxRetries int) Option {
	return func(c *batchClient) {
		c.maxRetries = maxRetries
	}
}

// WithBatchIDGenerator set BatchIDGenerator for the batch client
func WithBatchIDGenerator(generator BatchIDGenerator) Option {
	return func(c *batchClient) {
		c.idGenerator = generator
	}
}

// BatchIDGenerator generate a unique id for every batch the client begins
type BatchIDGenerator interface {
	// Generate returns a unique batch ID
	Generate() []byte
}

var _ BatchIDGenerator = (*uuidBatchIDGenerator)(nil)

type uuidBatchIDGenerator struct {
}

func newUUIDBatchIDGenerator() BatchIDGenerator {
	return &uuidBatchIDGenerator{}
}

func (gen *uuidBatchIDGenerator) Generate() []byte {
	return uuid.New()
}
