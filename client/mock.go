package client

import (
	"context"
	"sync"

	"github.com/matrixorigin/batchstore/pb/batchpb"
	"github.com/matrixorigin/batchstore/storage"
	"github.com/matrixorigin/batchstore/util/uuid"
)

var _ storage.RemoteStore = (*mockRemoteStore)(nil)

// mockRemoteStore RemoteStore with injectable handlers, used by tests. Every
// nil handler answers success.
type mockRemoteStore struct {
	sync.Mutex

	begins, reads, writes, commits, aborts int

	beginFn  func(options batchpb.BatchOptions) ([]byte, error)
	readFn   func(snapshotRef []byte, keys [][]byte) ([][]byte, error)
	scanFn   func(snapshotRef, start, end []byte) ([]batchpb.KeyValue, error)
	writeFn  func(snapshotRef, key, value []byte) error
	commitFn func(snapshotRef []byte) error
	abortFn  func(snapshotRef []byte) error
}

func newMockRemoteStore() *mockRemoteStore {
	return &mockRemoteStore{}
}

func (s *mockRemoteStore) BeginBatch(ctx context.Context, options batchpb.BatchOptions) ([]byte, error) {
	s.Lock()
	defer s.Unlock()

	s.begins++
	if s.beginFn != nil {
		return s.beginFn(options)
	}
	return uuid.New(), nil
}

func (s *mockRemoteStore) Read(ctx context.Context, snapshotRef []byte, keys [][]byte) ([][]byte, error) {
	s.Lock()
	defer s.Unlock()

	s.reads++
	if s.readFn != nil {
		return s.readFn(snapshotRef, keys)
	}
	return make([][]byte, len(keys)), nil
}

func (s *mockRemoteStore) Scan(ctx context.Context, snapshotRef []byte, start, end []byte) ([]batchpb.KeyValue, error) {
	s.Lock()
	defer s.Unlock()

	s.reads++
	if s.scanFn != nil {
		return s.scanFn(snapshotRef, start, end)
	}
	return nil, nil
}

func (s *mockRemoteStore) Write(ctx context.Context, snapshotRef []byte, key, value []byte) error {
	s.Lock()
	defer s.Unlock()

	s.writes++
	if s.writeFn != nil {
		return s.writeFn(snapshotRef, key, value)
	}
	return nil
}

func (s *mockRemoteStore) Commit(ctx context.Context, snapshotRef []byte) error {
	s.Lock()
	defer s.Unlock()

	s.commits++
	if s.commitFn != nil {
		return s.commitFn(snapshotRef)
	}
	return nil
}

func (s *mockRemoteStore) Abort(ctx context.Context, snapshotRef []byte) error {
	s.Lock()
	defer s.Unlock()

	s.aborts++
	if s.abortFn != nil {
		return s.abortFn(snapshotRef)
	}
	return nil
}

func (s *mockRemoteStore) calls() (begins, reads, writes, commits, aborts int) {
	s.Lock()
	defer s.Unlock()
	return s.begins, s.reads, s.writes, s.commits, s.aborts
}
