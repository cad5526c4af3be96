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

package mem

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/lni/goutils/leaktest"
	"github.com/matrixorigin/batchstore/client"
	"github.com/matrixorigin/batchstore/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// end to end: the batch client drives real snapshot isolation and conflict
// detection of the mem store.

func TestClientCommitVisibleToLaterBatches(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := NewStorage()
	c := client.NewBatchClient(s)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.RunInBatch(ctx, func(b client.Batch) error {
		return b.Set(ctx, []byte("k1"), []byte("v1"))
	}))

	err := c.RunInBatch(ctx, func(b client.Batch) error {
		value, err := b.Get(ctx, []byte("k1"))
		if err != nil {
			return err
		}
		assert.Equal(t, []byte("v1"), value)
		return nil
	}, client.WithBatchReadOnly())
	require.NoError(t, err)
}

func TestClientConflictingBatches(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := NewStorage()
	c := client.NewBatchClient(s)

	ctx := context.Background()
	b1, err := c.NewBatch(ctx, client.WithBatchName("b1"))
	require.NoError(t, err)
	b2, err := c.NewBatch(ctx, client.WithBatchName("b2"))
	require.NoError(t, err)

	require.NoError(t, b1.Set(ctx, []byte("k1"), []byte("b1")))
	require.NoError(t, b2.Set(ctx, []byte("k1"), []byte("b2")))

	require.NoError(t, b1.Commit(ctx))
	assert.True(t, errors.Is(b2.Commit(ctx), storage.ErrConflict))

	// drain the async snapshot release before checking the store
	c.Close()
	assert.Equal(t, 1, s.Len())
}

func TestClientRunInBatchResolvesContention(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := NewStorage()
	c := client.NewBatchClient(s)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.RunInBatch(ctx, func(b client.Batch) error {
		return b.Set(ctx, []byte("counter"), []byte{0})
	}))

	// every attempt reads the counter, an interfering commit between begin
	// and commit conflicts exactly once, the retry then succeeds
	interfered := false
	err := c.RunInBatch(ctx, func(b client.Batch) error {
		value, err := b.Get(ctx, []byte("counter"))
		if err != nil {
			return err
		}

		if !interfered {
			interfered = true
			other, err := c.NewBatch(ctx)
			if err != nil {
				return err
			}
			if err := other.Set(ctx, []byte("counter"), []byte{10}); err != nil {
				return err
			}
			if err := other.Commit(ctx); err != nil {
				return err
			}
		}

		return b.Set(ctx, []byte("counter"), []byte{value[0] + 1})
	})
	require.NoError(t, err)

	err = c.RunInBatch(ctx, func(b client.Batch) error {
		value, err := b.Get(ctx, []byte("counter"))
		if err != nil {
			return err
		}
		assert.Equal(t, []byte{11}, value)
		return nil
	}, client.WithBatchReadOnly())
	require.NoError(t, err)
}
