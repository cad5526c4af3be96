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
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/batchstore/components/log"
	"github.com/matrixorigin/batchstore/metric"
	"github.com/matrixorigin/batchstore/pb/batchpb"
	"github.com/matrixorigin/batchstore/storage"
	"github.com/matrixorigin/batchstore/util/stop"
	"go.uber.org/zap"
)

var _ Batch = (*batchCoordinator)(nil)

// batchCoordinator drives the lifecycle of one batch, begin -> perform* ->
// commit-or-abort. The status moves exactly once from Open to a terminal
// status and every operation checks the status locally before touching the
// remote store. The coordinator holds no cross-batch state, concurrency
// control is entirely the remote store's commit-time conflict detection.
type batchCoordinator struct {
	logger  *zap.Logger
	store   storage.RemoteStore
	stopper *stop.Stopper
	meta    batchpb.BatchMeta

	mu struct {
		sync.Mutex

		status batchpb.BatchStatus
		// ending commit or abort in flight, all batch operations are disabled.
		ending bool
	}
}

func newBatchCoordinator(meta batchpb.BatchMeta,
	store storage.RemoteStore,
	stopper *stop.Stopper,
	logger *zap.Logger) *batchCoordinator {
	bc := &batchCoordinator{
		store:   store,
		stopper: stopper,
		meta:    meta,
		logger:  logger.With(log.BatchIDField(meta.ID), zap.String("name", meta.Name)),
	}
	bc.mu.status = batchpb.BatchStatus_Open
	return bc
}

func (bc *batchCoordinator) Meta() batchpb.BatchMeta {
	return bc.meta
}

func (bc *batchCoordinator) Status() batchpb.BatchStatus {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.mu.status
}

func (bc *batchCoordinator) Get(ctx context.Context, key []byte) ([]byte, error) {
	values, err := bc.BatchGet(ctx, [][]byte{key})
	if err != nil {
		return nil, err
	}
	return values[0], nil
}

func (bc *batchCoordinator) BatchGet(ctx context.Context, keys [][]byte) ([][]byte, error) {
	if err := bc.canPerform(false); err != nil {
		return nil, err
	}
	return bc.store.Read(ctx, bc.meta.SnapshotRef, keys)
}

func (bc *batchCoordinator) Scan(ctx context.Context, start, end []byte) ([]batchpb.KeyValue, error) {
	if err := bc.canPerform(false); err != nil {
		return nil, err
	}
	return bc.store.Scan(ctx, bc.meta.SnapshotRef, start, end)
}

func (bc *batchCoordinator) Set(ctx context.Context, key, value []byte) error {
	if err := bc.canPerform(true); err != nil {
		return err
	}
	return bc.store.Write(ctx, bc.meta.SnapshotRef, key, value)
}

func (bc *batchCoordinator) Delete(ctx context.Context, key []byte) error {
	if err := bc.canPerform(true); err != nil {
		return err
	}
	// deletes travel as nil-value writes
	return bc.store.Write(ctx, bc.meta.SnapshotRef, key, nil)
}

// Commit requests the remote store to atomically apply the batch. Any failure
// leaves the batch unusable: a conflict means another actor won the optimistic
// race and the remote snapshot is released asynchronously; a cancelled context
// means the remote outcome is unknown and the batch is never assumed
// committed.
func (bc *batchCoordinator) Commit(ctx context.Context) error {
	if err := bc.beginEnding(); err != nil {
		return err
	}

	err := bc.store.Commit(ctx, bc.meta.SnapshotRef)
	if err == nil {
		bc.setStatus(batchpb.BatchStatus_Committed)
		metric.IncBatchCommitted()
		metric.RemoveActiveBatch()
		return nil
	}

	bc.setStatus(batchpb.BatchStatus_Aborted)
	metric.IncBatchAborted()
	metric.RemoveActiveBatch()
	if errors.Is(err, storage.ErrConflict) {
		metric.IncCommitConflict()
		bc.logger.Debug("commit conflict",
			log.ReasonField("concurrent batch committed intersecting writes"))
		bc.startAsyncCleanBatchTask()
	}
	return err
}

// Abort discards the batch. The remote release is best-effort: the batch is
// marked aborted locally before the remote call, a remote failure is
// suppressed so cleanup never masks the error that triggered it.
func (bc *batchCoordinator) Abort(ctx context.Context) error {
	if err := bc.beginEnding(); err != nil {
		return err
	}

	bc.setStatus(batchpb.BatchStatus_Aborted)
	metric.IncBatchAborted()
	metric.RemoveActiveBatch()

	if err := bc.store.Abort(ctx, bc.meta.SnapshotRef); err != nil {
		bc.logger.Debug("remote abort failed",
			zap.Error(err))
	}
	return nil
}

// canPerform returns ErrBatchClosed if the batch cannot accept operations
// anymore. Checked locally, no wire round-trip is made for a closed batch.
// Writes against a read-only batch are rejected here as well, before
// dispatch.
func (bc *batchCoordinator) canPerform(write bool) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.mu.status.IsFinal() || bc.mu.ending {
		return ErrBatchClosed
	}
	if write && bc.meta.Options.ReadOnly {
		return storage.ErrReadOnlyBatch
	}
	return nil
}

// beginEnding moves the batch into the ending phase, after which no further
// operation can start. Only the first commit or abort wins.
func (bc *batchCoordinator) beginEnding() error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.mu.status.IsFinal() || bc.mu.ending {
		return ErrBatchClosed
	}
	bc.mu.ending = true
	return nil
}

func (bc *batchCoordinator) setStatus(status batchpb.BatchStatus) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.mu.status = status
}

// startAsyncCleanBatchTask releases the remote snapshot after a commit
// conflict. It is okay if it fails, the remote store will reclaim abandoned
// batches on its own.
func (bc *batchCoordinator) startAsyncCleanBatchTask() {
	err := bc.stopper.RunNamedTask(context.Background(), "batch-cleanup", func(ctx context.Context) {
		if err := bc.store.Abort(ctx, bc.meta.SnapshotRef); err != nil {
			bc.logger.Error("async clean batch failed",
				zap.Error(err))
		}
	})
	if err != nil {
		bc.logger.Debug("async clean batch not scheduled",
			log.ReasonField("client closed"))
	}
}
