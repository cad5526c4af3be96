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

type treeItem struct {
	key []byte
}

// Less returns true if the item key is less than the other.
func (item treeItem) Less(other btree.Item) bool {
	return bytes.Compare(other.(treeItem).key, item.key) > 0
}

// KeyTree ordered key set backed by a btree.
type KeyTree struct {
	tree *btree.BTree
	tmp  treeItem
}

// NewKeyTree return a key btree
func NewKeyTree(btreeDegree int) *KeyTree {
	return &KeyTree{
		tree: btree.New(btreeDegree),
	}
}

// Add adds a key
func (k *KeyTree) Add(key []byte) {
	k.tree.ReplaceOrInsert(treeItem{key: key})
}

// AddMany adds many keys
func (k *KeyTree) AddMany(keys [][]byte) {
	for _, key := range keys {
		k.Add(key)
	}
}

// Contains returns true if the key is in the tree
func (k *KeyTree) Contains(key []byte) bool {
	k.tmp.key = key
	return nil != k.tree.Get(k.tmp)
}

// Len return the count of keys
func (k *KeyTree) Len() int {
	return k.tree.Len()
}

// Delete deletes a key
func (k *KeyTree) Delete(key []byte) {
	k.tmp.key = key
	k.tree.Delete(k.tmp)
}

// HasIntersection returns true if any key in [start, end) is in the tree.
func (k *KeyTree) HasIntersection(start, end []byte) bool {
	found := false
	k.AscendRange(start, end, func(key []byte) bool {
		found = true
		return false
	})
	return found
}

// AscendRange iter in [start, end)
func (k *KeyTree) AscendRange(start, end []byte, fn func(key []byte) bool) {
	k.tmp.key = start
	k.tree.AscendGreaterOrEqual(k.tmp, func(i btree.Item) bool {
		target := i.(treeItem)
		if len(end) == 0 || bytes.Compare(target.key, end) < 0 {
			return fn(target.key)
		}
		return false
	})
}

// Ascend iter all tree
func (k *KeyTree) Ascend(fn func(key []byte) bool) {
	k.tmp.key = nil
	k.tree.AscendGreaterOrEqual(k.tmp, func(i btree.Item) bool {
		return fn(i.(treeItem).key)
	})
}
