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

package batchpb

// BatchStatus batch lifecycle status. A batch starts in `BatchStatus_Open` and
// moves exactly once to one of the terminal statuses.
type BatchStatus int32

const (
	// BatchStatus_Open the batch is usable, read and write operations can be
	// performed against its snapshot.
	BatchStatus_Open BatchStatus = 0
	// BatchStatus_Committed the batch committed successfully, all writes are
	// visible to batches begun afterwards.
	BatchStatus_Committed BatchStatus = 1
	// BatchStatus_Aborted the batch is unusable, either aborted explicitly or
	// failed at commit. Its writes are discarded.
	BatchStatus_Aborted BatchStatus = 2
)

// String implements fmt.Stringer.
func (s BatchStatus) String() string {
	switch s {
	case BatchStatus_Open:
		return "Open"
	case BatchStatus_Committed:
		return "Committed"
	case BatchStatus_Aborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// IsFinal returns true if the status is terminal, no operation can be
// performed against the batch anymore.
func (s BatchStatus) IsFinal() bool {
	return s == BatchStatus_Committed || s == BatchStatus_Aborted
}

// BatchOptions options used to begin a batch, passed to the remote store
// uninterpreted except for ReadOnly.
type BatchOptions struct {
	// ReadOnly the batch permits no writes.
	ReadOnly bool
	// Hint opaque advisory string, forwarded to the remote store verbatim.
	Hint string
}

// BatchMeta metadata of one batch, assigned at begin time and immutable
// afterwards.
type BatchMeta struct {
	// ID client generated unique id of the batch, used for logging and
	// correlation only.
	ID []byte
	// Name human readable name of the batch, used for logging only.
	Name string
	// SnapshotRef opaque snapshot reference returned by the remote store at
	// begin time. All batch operations are addressed by this reference.
	SnapshotRef []byte
	// Options the options the batch was begun with.
	Options BatchOptions
}

// KeyValue a key value pair returned by range reads.
type KeyValue struct {
	Key   []byte
	Value []byte
}
