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

package storage

import (
	"context"
	"errors"

	"github.com/matrixorigin/batchstore/pb/batchpb"
)

var (
	// ErrConflict an optimistic conflict was detected at commit time. Another
	// actor committed a write intersecting the batch's conflict set since the
	// batch began. The batch is unusable, the caller must retry with a brand
	// new batch.
	ErrConflict = errors.New("concurrent batch conflict detected at commit")
	// ErrBatchNotFound the snapshot reference does not identify an in-flight
	// batch on the remote store.
	ErrBatchNotFound = errors.New("no such batch")
	// ErrReadOnlyBatch a write was attempted against a batch begun with the
	// ReadOnly option.
	ErrReadOnlyBatch = errors.New("batch is read-only")
)

// RemoteStore is the remote database service the batch coordinator talks to.
// It owns snapshot isolation, conflict detection and durability; the client
// side implements none of these. Deletes travel as nil-value writes.
//
// All methods are a single request/response exchange. The store records the
// keys and ranges touched by Read and Scan against the batch's conflict set;
// Commit fails with ErrConflict if another actor committed an intersecting
// write since BeginBatch.
type RemoteStore interface {
	// BeginBatch opens a new batch and returns an opaque snapshot reference
	// all subsequent operations are addressed by.
	BeginBatch(ctx context.Context, options batchpb.BatchOptions) ([]byte, error)
	// Read reads the given point keys from the batch's snapshot. The returned
	// values match the order of keys, a missing key yields a nil value.
	Read(ctx context.Context, snapshotRef []byte, keys [][]byte) ([][]byte, error)
	// Scan reads the key range [start, end) from the batch's snapshot.
	Scan(ctx context.Context, snapshotRef []byte, start, end []byte) ([]batchpb.KeyValue, error)
	// Write buffers a write into the batch. A nil value is a delete.
	Write(ctx context.Context, snapshotRef []byte, key, value []byte) error
	// Commit atomically applies all writes buffered in the batch, contingent
	// on no conflicting commit since BeginBatch. Returns nil, ErrConflict, or
	// any other remote failure.
	Commit(ctx context.Context, snapshotRef []byte) error
	// Abort discards the batch. Best-effort, the remote store may reclaim
	// abandoned batches on its own.
	Abort(ctx context.Context, snapshotRef []byte) error
}
