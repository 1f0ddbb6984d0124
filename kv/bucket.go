// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket is a key prefix carving a private keyspace out of a store.
type Bucket string

func (b Bucket) key(k []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(k)), b...), k...)
}

// NewStore creates a bucket store from the source store.
// Keys seen through the bucket store never carry the prefix.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{b, src}
}

type bucketStore struct {
	b   Bucket
	src Store
}

func (s *bucketStore) Get(key []byte) ([]byte, error) { return s.src.Get(s.b.key(key)) }
func (s *bucketStore) Has(key []byte) (bool, error)   { return s.src.Has(s.b.key(key)) }
func (s *bucketStore) IsNotFound(err error) bool      { return s.src.IsNotFound(err) }
func (s *bucketStore) Put(key, val []byte) error      { return s.src.Put(s.b.key(key), val) }
func (s *bucketStore) Delete(key []byte) error        { return s.src.Delete(s.b.key(key)) }
func (s *bucketStore) Batch() Batch                   { return &bucketBatch{s.b, s.src.Batch()} }

func (s *bucketStore) Iterate(r Range) Iterator {
	start := s.b.key(r.Start)
	limit := util.BytesPrefix([]byte(s.b)).Limit
	if len(r.Limit) > 0 {
		limit = s.b.key(r.Limit)
	}
	return &bucketIterator{s.src.Iterate(Range{Start: start, Limit: limit}), len(s.b)}
}

type bucketBatch struct {
	b Bucket
	Batch
}

func (bb *bucketBatch) Put(key, val []byte) error { return bb.Batch.Put(bb.b.key(key), val) }
func (bb *bucketBatch) Delete(key []byte) error   { return bb.Batch.Delete(bb.b.key(key)) }

// bucketIterator strips the bucket prefix off keys.
type bucketIterator struct {
	Iterator
	n int
}

func (it *bucketIterator) Key() []byte { return it.Iterator.Key()[it.n:] }
