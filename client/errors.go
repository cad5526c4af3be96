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

import "errors"

var (
	// ErrBatchClosed no operation can be performed against a committed or
	// aborted batch. Returned locally, no remote call is made.
	ErrBatchClosed = errors.New("batch is closed")
	// ErrRetriesExhausted the retry budget of RunInBatch was exhausted, every
	// attempt failed with a commit conflict. The error wraps the last
	// conflict.
	ErrRetriesExhausted = errors.New("batch retry budget exhausted")
)
