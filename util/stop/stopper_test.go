// Copyright 2021 MatrixOrigin.
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

package stop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lni/goutils/leaktest"
	"github.com/stretchr/testify/assert"
)

func TestRunTask(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := NewStopper("test")
	defer s.Stop()

	c := make(chan struct{})
	assert.NoError(t, s.RunTask(context.Background(), func(ctx context.Context) {
		close(c)
	}))
	select {
	case <-c:
	case <-time.After(time.Second):
		assert.Fail(t, "task not executed")
	}
}

func TestRunTaskAfterStopped(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := NewStopper("test")
	s.Stop()
	assert.Equal(t, ErrUnavailable,
		s.RunTask(context.Background(), func(ctx context.Context) {}))
}

func TestStopCancelsRunningTasks(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := NewStopper("test")

	var cancelled uint64
	assert.NoError(t, s.RunNamedTask(context.Background(), "wait-cancel", func(ctx context.Context) {
		<-ctx.Done()
		atomic.StoreUint64(&cancelled, 1)
	}))

	s.Stop()
	assert.Equal(t, uint64(1), atomic.LoadUint64(&cancelled))
}

func TestStopCanBeCalledTwice(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := NewStopper("test")
	s.Stop()
	s.Stop()
}
