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

	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/batchstore/components/log"
	"github.com/matrixorigin/batchstore/metric"
	"github.com/matrixorigin/batchstore/pb/batchpb"
	"github.com/matrixorigin/batchstore/storage"
	"go.uber.org/zap"
)

// defaultMaxRetries conflicts are expected under contention, a small budget
// absorbs transient races without masking sustained contention from the
// caller.
const defaultMaxRetries = 3

// RunInBatch retry policy: a commit conflict is the only failure eligible for
// transparent retry. Begin failures are connection problems, not conflicts;
// body failures are application errors; other commit failures are remote
// faults. All of these are surfaced immediately, blind retrying would mask
// real faults or double-apply side effects outside the batch boundary.
func (c *batchClient) RunInBatch(ctx context.Context, body func(Batch) error, opts ...BatchOption) error {
	var lastConflict error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			metric.IncBatchRetry()
			c.logger.Debug("retrying batch after conflict",
				log.AttemptField(attempt))
		}

		batch, err := c.NewBatch(ctx, opts...)
		if err != nil {
			return err
		}

		err = c.runAttempt(ctx, batch, body)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return err
		}
		lastConflict = err
	}

	c.logger.Debug("batch retry budget exhausted",
		zap.Int("max-retries", c.maxRetries))
	return errors.Mark(
		errors.Wrapf(lastConflict, "batch failed after %d attempts", c.maxRetries),
		ErrRetriesExhausted)
}

// runAttempt runs one body-and-commit attempt. The deferred abort guarantees
// the batch never leaks on any exit path, panics raised by body included.
func (c *batchClient) runAttempt(ctx context.Context, batch Batch, body func(Batch) error) error {
	defer func() {
		if batch.Status() == batchpb.BatchStatus_Open {
			_ = batch.Abort(ctx)
		}
	}()

	if err := body(batch); err != nil {
		return err
	}
	return batch.Commit(ctx)
}
