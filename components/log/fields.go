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

package log

import (
	"encoding/hex"

	"github.com/matrixorigin/batchstore/pb/batchpb"
	"go.uber.org/zap"
)

// HexField returns zap.StringField, use hex.EncodeToString as string value
func HexField(key string, data []byte) zap.Field {
	if len(data) == 0 {
		return zap.String(key, "")
	}
	return zap.String(key, hex.EncodeToString(data))
}

// ReasonField returns zap.StringField
func ReasonField(why string) zap.Field {
	return zap.String("reason", why)
}

// BatchIDField returns the batch id field, use hex.EncodeToString as string value
func BatchIDField(id []byte) zap.Field {
	return HexField("batch-id", id)
}

// BatchStatusField returns the batch status field
func BatchStatusField(status batchpb.BatchStatus) zap.Field {
	return zap.String("status", status.String())
}

// SnapshotRefField returns the snapshot reference field
func SnapshotRefField(ref []byte) zap.Field {
	return HexField("snapshot-ref", ref)
}

// AttemptField returns the retry attempt field
func AttemptField(attempt int) zap.Field {
	return zap.Int("attempt", attempt)
}
