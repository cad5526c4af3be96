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
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fagongzi/util/format"
	"github.com/fagongzi/util/hack"
	"github.com/matrixorigin/batchstore/pb/batchpb"
	"github.com/matrixorigin/batchstore/storage"
	"github.com/matrixorigin/batchstore/util/keys"
)

var _ storage.RemoteStore = (*Storage)(nil)

type keyRange struct {
	start []byte
	end   []byte
}

// batchState one in-flight batch. The snapshot is a copy-on-write clone of
// the committed tree taken at begin time, so reads never observe commits that
// happen after begin. Reads are recorded into the conflict set, writes are
// buffered until commit.
type batchState struct {
	options    batchpb.BatchOptions
	beginSeq   uint64
	snapshot   *keys.KVTree
	writes     *keys.KVTree
	readPoints *keys.KeyTree
	readRanges []keyRange
}

type commitRecord struct {
	seq  uint64
	keys *keys.KeyTree
}

// Storage in-memory remote store with snapshot isolated batches and
// first-committer-wins conflict detection. It implements the full
// storage.RemoteStore contract and is used as the integration test double for
// the batch client; it is not a durable storage engine.
type Storage struct {
	mu struct {
		sync.Mutex

		committed *keys.KVTree
		commitSeq uint64
		lastRef   uint64
		batches   map[string]*batchState
		// commitLog written key sets of every commit, used to validate the
		// conflict sets of batches begun before those commits. Never trimmed,
		// this store is test infrastructure.
		commitLog []commitRecord
	}
}

// NewStorage returns a mem remote store
func NewStorage() *Storage {
	s := &Storage{}
	s.mu.committed = keys.NewKVTree()
	s.mu.batches = make(map[string]*batchState)
	return s
}

func (s *Storage) BeginBatch(ctx context.Context, options batchpb.BatchOptions) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mu.lastRef++
	ref := format.Uint64ToString(s.mu.lastRef)
	s.mu.batches[ref] = &batchState{
		options:    options,
		beginSeq:   s.mu.commitSeq,
		snapshot:   s.mu.committed.Clone(),
		writes:     keys.NewKVTree(),
		readPoints: keys.NewKeyTree(32),
	}
	return hack.StringToSlice(ref), nil
}

func (s *Storage) Read(ctx context.Context, snapshotRef []byte, readKeys [][]byte) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.getBatchLocked(snapshotRef)
	if err != nil {
		return nil, err
	}

	values := make([][]byte, 0, len(readKeys))
	for _, key := range readKeys {
		b.readPoints.Add(key)
		values = append(values, readValue(b, key))
	}
	return values, nil
}

func (s *Storage) Scan(ctx context.Context, snapshotRef []byte, start, end []byte) ([]batchpb.KeyValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.getBatchLocked(snapshotRef)
	if err != nil {
		return nil, err
	}

	b.readRanges = append(b.readRanges, keyRange{start: start, end: end})

	// overlay the batch's own writes on the snapshot, tombstones win
	merged := keys.NewKVTree()
	b.snapshot.AscendRange(start, end, func(key, value []byte, seq uint64) bool {
		merged.Put(key, value, seq)
		return true
	})
	b.writes.AscendRange(start, end, func(key, value []byte, seq uint64) bool {
		merged.Put(key, value, seq)
		return true
	})

	var result []batchpb.KeyValue
	merged.AscendRange(start, end, func(key, value []byte, seq uint64) bool {
		if value != nil {
			result = append(result, batchpb.KeyValue{Key: key, Value: value})
		}
		return true
	})
	return result, nil
}

func (s *Storage) Write(ctx context.Context, snapshotRef []byte, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.getBatchLocked(snapshotRef)
	if err != nil {
		return err
	}

	if b.options.ReadOnly {
		return errors.Wrapf(storage.ErrReadOnlyBatch, "key %q", key)
	}
	b.writes.Put(key, value, 0)
	return nil
}

// Commit validates the batch's conflict set against every commit that
// happened since the batch began, then applies the buffered writes. On
// conflict the batch is kept so the client can release it with Abort.
func (s *Storage) Commit(ctx context.Context, snapshotRef []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.getBatchLocked(snapshotRef)
	if err != nil {
		return err
	}

	if s.hasConflictLocked(b) {
		return storage.ErrConflict
	}

	s.mu.commitSeq++
	seq := s.mu.commitSeq
	written := keys.NewKeyTree(32)
	b.writes.AscendRange(nil, nil, func(key, value []byte, _ uint64) bool {
		s.mu.committed.Put(key, value, seq)
		written.Add(key)
		return true
	})
	if written.Len() > 0 {
		s.mu.commitLog = append(s.mu.commitLog, commitRecord{seq: seq, keys: written})
	}
	delete(s.mu.batches, hack.SliceToString(snapshotRef))
	return nil
}

func (s *Storage) Abort(ctx context.Context, snapshotRef []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := hack.SliceToString(snapshotRef)
	if _, ok := s.mu.batches[ref]; !ok {
		return errors.Wrapf(storage.ErrBatchNotFound, "ref %s", ref)
	}
	delete(s.mu.batches, ref)
	return nil
}

// Len returns the count of committed live keys, tombstones excluded.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	s.mu.committed.AscendRange(nil, nil, func(key, value []byte, seq uint64) bool {
		if value != nil {
			n++
		}
		return true
	})
	return n
}

func (s *Storage) getBatchLocked(snapshotRef []byte) (*batchState, error) {
	b, ok := s.mu.batches[hack.SliceToString(snapshotRef)]
	if !ok {
		return nil, errors.Wrapf(storage.ErrBatchNotFound, "ref %s", snapshotRef)
	}
	return b, nil
}

// hasConflictLocked returns true if any commit after the batch began wrote a
// key intersecting the batch's conflict set, the keys and ranges it read plus
// the keys it wrote.
func (s *Storage) hasConflictLocked(b *batchState) bool {
	for _, record := range s.mu.commitLog {
		if record.seq <= b.beginSeq {
			continue
		}

		conflict := false
		record.keys.Ascend(func(key []byte) bool {
			if b.readPoints.Contains(key) {
				conflict = true
				return false
			}
			if _, _, ok := b.writes.GetVersioned(key); ok {
				conflict = true
				return false
			}
			return true
		})
		if conflict {
			return true
		}

		for _, r := range b.readRanges {
			if record.keys.HasIntersection(r.start, r.end) {
				return true
			}
		}
	}
	return false
}

func readValue(b *batchState, key []byte) []byte {
	// read-your-own-writes, the batch's buffered write wins over the snapshot
	if value, _, ok := b.writes.GetVersioned(key); ok {
		return value
	}
	return b.snapshot.Get(key)
}
