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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/lni/goutils/leaktest"
	"github.com/matrixorigin/batchstore/pb/batchpb"
	"github.com/matrixorigin/batchstore/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformAfterCommitFailsFast(t *testing.T) {
	defer leaktest.AfterTest(t)()

	store := newMockRemoteStore()
	c := NewBatchClient(store)
	defer c.Close()

	ctx := context.Background()
	b, err := c.NewBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Commit(ctx))
	assert.Equal(t, batchpb.BatchStatus_Committed, b.Status())

	_, err = b.Get(ctx, []byte("k1"))
	assert.Equal(t, ErrBatchClosed, err)
	assert.Equal(t, ErrBatchClosed, b.Set(ctx, []byte("k1"), []byte("v1")))
	assert.Equal(t, ErrBatchClosed, b.Commit(ctx))
	assert.Equal(t, ErrBatchClosed, b.Abort(ctx))

	// closed-batch failures must not reach the remote store
	_, reads, writes, commits, aborts := store.calls()
	assert.Equal(t, 0, reads)
	assert.Equal(t, 0, writes)
	assert.Equal(t, 1, commits)
	assert.Equal(t, 0, aborts)
}

func TestPerformAfterAbortFailsFast(t *testing.T) {
	defer leaktest.AfterTest(t)()

	store := newMockRemoteStore()
	c := NewBatchClient(store)
	defer c.Close()

	ctx := context.Background()
	b, err := c.NewBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Abort(ctx))
	assert.Equal(t, batchpb.BatchStatus_Aborted, b.Status())

	_, err = b.BatchGet(ctx, [][]byte{[]byte("k1")})
	assert.Equal(t, ErrBatchClosed, err)
	_, err = b.Scan(ctx, nil, nil)
	assert.Equal(t, ErrBatchClosed, err)
	assert.Equal(t, ErrBatchClosed, b.Abort(ctx))

	_, reads, _, _, aborts := store.calls()
	assert.Equal(t, 0, reads)
	assert.Equal(t, 1, aborts)
}

func TestWriteOnReadOnlyBatchRejectedBeforeDispatch(t *testing.T) {
	defer leaktest.AfterTest(t)()

	store := newMockRemoteStore()
	c := NewBatchClient(store)
	defer c.Close()

	ctx := context.Background()
	b, err := c.NewBatch(ctx, WithBatchReadOnly())
	require.NoError(t, err)

	assert.True(t, errors.Is(b.Set(ctx, []byte("k1"), []byte("v1")), storage.ErrReadOnlyBatch))
	assert.True(t, errors.Is(b.Delete(ctx, []byte("k1")), storage.ErrReadOnlyBatch))
	assert.Equal(t, batchpb.BatchStatus_Open, b.Status())

	_, _, writes, _, _ := store.calls()
	assert.Equal(t, 0, writes)

	// reads are still allowed
	_, err = b.Get(ctx, []byte("k1"))
	assert.NoError(t, err)
	require.NoError(t, b.Commit(ctx))
}

func TestCommitConflictAbortsBatch(t *testing.T) {
	defer leaktest.AfterTest(t)()

	store := newMockRemoteStore()
	store.commitFn = func(snapshotRef []byte) error {
		return storage.ErrConflict
	}

	c := NewBatchClient(store)
	b, err := c.NewBatch(context.Background())
	require.NoError(t, err)

	err = b.Commit(context.Background())
	assert.True(t, errors.Is(err, storage.ErrConflict))
	assert.Equal(t, batchpb.BatchStatus_Aborted, b.Status())

	// Close drains the async snapshot release
	c.Close()
	_, _, _, _, aborts := store.calls()
	assert.Equal(t, 1, aborts)
}

func TestCommitOperationErrorAbortsBatchWithoutCleanup(t *testing.T) {
	defer leaktest.AfterTest(t)()

	store := newMockRemoteStore()
	errBoom := errors.New("permission denied")
	store.commitFn = func(snapshotRef []byte) error {
		return errBoom
	}

	c := NewBatchClient(store)
	b, err := c.NewBatch(context.Background())
	require.NoError(t, err)

	err = b.Commit(context.Background())
	assert.True(t, errors.Is(err, errBoom))
	assert.False(t, errors.Is(err, storage.ErrConflict))
	assert.Equal(t, batchpb.BatchStatus_Aborted, b.Status())

	c.Close()
	_, _, _, _, aborts := store.calls()
	assert.Equal(t, 0, aborts)
}

func TestAbortIsBestEffort(t *testing.T) {
	defer leaktest.AfterTest(t)()

	store := newMockRemoteStore()
	store.abortFn = func(snapshotRef []byte) error {
		return errors.New("remote unavailable")
	}

	c := NewBatchClient(store)
	defer c.Close()

	b, err := c.NewBatch(context.Background())
	require.NoError(t, err)

	// remote abort failure is suppressed, local state is never ambiguous
	assert.NoError(t, b.Abort(context.Background()))
	assert.Equal(t, batchpb.BatchStatus_Aborted, b.Status())
}
