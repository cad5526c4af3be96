// Copyright 2022 MatrixOrigin.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package client

import (
	"context"

	"github.com/matrixorigin/batchstore/components/log"
	"github.com/matrixorigin/batchstore/metric"
	"github.com/matrixorigin/batchstore/pb/batchpb"
	"github.com/matrixorigin/batchstore/storage"
	"github.com/matrixorigin/batchstore/util/stop"
	"go.uber.org/zap"
)

// BatchClient client of a remote store supporting optimistic, snapshot
// isolated batches.
type BatchClient interface {
	// NewBatch begins a new batch against the remote store and returns the
	// batch handle bound to a fresh snapshot. On failure no batch is created
	// and the error is surfaced verbatim.
	NewBatch(ctx context.Context, opts ...BatchOption) (Batch, error)
	// RunInBatch runs body inside a batch and commits it, retrying the whole
	// body with a brand new batch on commit conflict, up to the configured
	// retry budget. Conflicts are the only retried failure; every other error
	// aborts the batch and is surfaced immediately. The batch is aborted on
	// every non-commit exit path of body, panics included.
	RunInBatch(ctx context.Context, body func(Batch) error, opts ...BatchOption) error
	// Close closes the client and waits for in-flight cleanup tasks.
	Close()
}

// Batch one optimistic, snapshot isolated batch against the remote store.
// Reads observe the snapshot fixed at begin time plus the batch's own writes,
// never writes committed by other batches after begin. A batch is driven by
// one logical caller at a time.
type Batch interface {
	// Meta returns the metadata assigned at begin time.
	Meta() batchpb.BatchMeta
	// Status returns the current lifecycle status.
	Status() batchpb.BatchStatus

	// Get reads the value of key from the batch's snapshot, nil if missing.
	Get(ctx context.Context, key []byte) ([]byte, error)
	// BatchGet similar to Get, but performs with multi-keys.
	BatchGet(ctx context.Context, keys [][]byte) ([][]byte, error)
	// Scan reads the keys in the range [start, end) from the batch's snapshot.
	Scan(ctx context.Context, start, end []byte) ([]batchpb.KeyValue, error)
	// Set buffers a write into the batch.
	Set(ctx context.Context, key, value []byte) error
	// Delete buffers a delete into the batch.
	Delete(ctx context.Context, key []byte) error

	// Commit atomically applies all writes buffered in the batch, contingent
	// on no other actor having committed an intersecting write since begin.
	// Returns storage.ErrConflict if the optimistic check failed; the batch is
	// aborted and the caller must retry with a brand new batch. Any commit
	// error leaves the batch unusable.
	Commit(ctx context.Context) error
	// Abort discards all buffered writes and releases the remote snapshot.
	// The remote release is best-effort, the batch is always marked aborted
	// locally.
	Abort(ctx context.Context) error
}

var _ BatchClient = (*batchClient)(nil)

type batchClient struct {
	logger      *zap.Logger
	store       storage.RemoteStore
	idGenerator BatchIDGenerator
	maxRetries  int
	stopper     *stop.Stopper
}

// NewBatchClient create a batch client on the given remote store
func NewBatchClient(store storage.RemoteStore, opts ...Option) BatchClient {
	c := &batchClient{store: store}
	for _, opt := range opts {
		opt(c)
	}
	c.adjust()
	c.stopper = stop.NewStopper("batch-client", stop.WithLogger(c.logger))
	return c
}

func (c *batchClient) adjust() {
	if c.logger == nil {
		c.logger = log.Adjust(nil).Named("batch")
	}

	if c.idGenerator == nil {
		c.idGenerator = newUUIDBatchIDGenerator()
	}

	if c.maxRetries == 0 {
		c.maxRetries = defaultMaxRetries
	}
}

func (c *batchClient) NewBatch(ctx context.Context, opts ...BatchOption) (Batch, error) {
	options := batchOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	options.adjust()

	wire := options.wire()
	snapshotRef, err := c.store.BeginBatch(ctx, wire)
	if err != nil {
		return nil, err
	}

	meta := batchpb.BatchMeta{
		ID:          c.idGenerator.Generate(),
		Name:        options.name,
		SnapshotRef: snapshotRef,
		Options:     wire,
	}
	metric.IncBatchCreated()
	metric.AddActiveBatch()
	c.logger.Debug("batch created",
		log.BatchIDField(meta.ID),
		log.SnapshotRefField(meta.SnapshotRef))
	return newBatchCoordinator(meta, c.store, c.stopper, c.logger), nil
}

func (c *batchClient) Close() {
	c.stopper.Stop()
}
