// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucket_Store(t *testing.T) {
	db := newMem(t)
	a := Bucket("a/").NewStore(db)
	b := Bucket("b/").NewStore(db)

	batch := a.Batch()
	require.NoError(t, batch.Put([]byte("1"), []byte("x")))
	require.NoError(t, batch.Put([]byte("2"), []byte("y")))
	assert.Equal(t, 2, batch.Len())
	require.NoError(t, batch.Write())
	require.NoError(t, b.Put([]byte("1"), []byte("z")))

	iter := a.Iterate(Range{})
	var keys, vals []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
		vals = append(vals, string(iter.Value()))
	}
	iter.Release()
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"1", "2"}, keys)
	assert.Equal(t, []string{"x", "y"}, vals)

	raw, err := db.Get([]byte("b/1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("z"), raw)
}

func TestBucket_GetHasDelete(t *testing.T) {
	db := newMem(t)
	require.NoError(t, db.Put([]byte("k1"), []byte("v1")))
	s := Bucket("k").NewStore(db)

	v, err := s.Get([]byte("1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	_, err = s.Get([]byte("k1"))
	assert.True(t, s.IsNotFound(err))

	has, err := s.Has([]byte("1"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.Delete([]byte("1")))
	has, err = db.Has([]byte("k1"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBucket_IterateLimit(t *testing.T) {
	db := newMem(t)
	s := Bucket("p/").NewStore(db)
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Put([]byte(k), []byte(k)))
	}
	require.NoError(t, db.Put([]byte("q/a"), nil))

	iter := s.Iterate(Range{Start: []byte("b"), Limit: []byte("c")})
	defer iter.Release()
	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	assert.Equal(t, []string{"b"}, keys)
}
