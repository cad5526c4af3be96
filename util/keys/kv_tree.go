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

package keys

import (
	"bytes"

	"github.com/google/btree"
)

type kvItem struct {
	key []byte
	// value is nil for a tombstone.
	value []byte
	// seq the commit sequence that produced this version.
	seq uint64
}

// Less returns true if the item key is less than the other.
func (item kvItem) Less(other btree.Item) bool {
	return bytes.Compare(other.(kvItem).key, item.key) > 0
}

// KVTree ordered key-value btree keeping one versioned entry per key. Deleted
// keys stay in the tree as tombstones (nil value) so conflict checks can see
// them.
type KVTree struct {
	tree *btree.BTree
	tmp  kvItem
}

// NewKVTree return a kv btree
func NewKVTree() *KVTree {
	return &KVTree{
		tree: btree.New(64),
	}
}

// Put adds or updates the key with the given value and sequence. A nil value
// records a tombstone.
func (k *KVTree) Put(key, value []byte, seq uint64) {
	k.tree.ReplaceOrInsert(kvItem{key: key, value: value, seq: seq})
}

// Get returns the live value of the key, nil for missing keys and tombstones.
func (k *KVTree) Get(key []byte) []byte {
	value, _, _ := k.GetVersioned(key)
	return value
}

// GetVersioned returns the value, the commit sequence and whether any entry
// (live or tombstone) exists for the key.
func (k *KVTree) GetVersioned(key []byte) ([]byte, uint64, bool) {
	k.tmp.key = key
	item := k.tree.Get(k.tmp)
	if item == nil {
		return nil, 0, false
	}
	target := item.(kvItem)
	return target.value, target.seq, true
}

// Len return the count of entries, tombstones included
func (k *KVTree) Len() int {
	return k.tree.Len()
}

// AscendRange iter entries in [start, end), tombstones included. An empty end
// means no upper bound.
func (k *KVTree) AscendRange(start, end []byte, fn func(key, value []byte, seq uint64) bool) {
	k.tmp.key = start
	k.tree.AscendGreaterOrEqual(k.tmp, func(i btree.Item) bool {
		target := i.(kvItem)
		if len(end) == 0 || bytes.Compare(target.key, end) < 0 {
			return fn(target.key, target.value, target.seq)
		}
		return false
	})
}

// Clone returns a copy-on-write snapshot of the tree. The clone is immutable
// from the point of view of later Put calls on the original.
func (k *KVTree) Clone() *KVTree {
	return &KVTree{
		tree: k.tree.Clone(),
	}
}
