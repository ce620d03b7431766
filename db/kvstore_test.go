// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const _testNamespace = "ns"

func testKVStorePutGet(t *testing.T, kv KVStore) {
	r := require.New(t)
	ctx := context.Background()
	r.NoError(kv.Start(ctx))
	defer func() { r.NoError(kv.Stop(ctx)) }()

	_, err := kv.Get(_testNamespace, []byte("key"))
	r.ErrorIs(err, ErrBucketNotExist)

	r.NoError(kv.Put(_testNamespace, []byte("key"), []byte("value")))
	v, err := kv.Get(_testNamespace, []byte("key"))
	r.NoError(err)
	r.Equal([]byte("value"), v)

	// overwrite
	r.NoError(kv.Put(_testNamespace, []byte("key"), []byte("value2")))
	v, err = kv.Get(_testNamespace, []byte("key"))
	r.NoError(err)
	r.Equal([]byte("value2"), v)

	_, err = kv.Get(_testNamespace, []byte("missing"))
	r.ErrorIs(err, ErrNotExist)

	r.NoError(kv.Delete(_testNamespace, []byte("key")))
	_, err = kv.Get(_testNamespace, []byte("key"))
	r.ErrorIs(err, ErrNotExist)
	// deleting a missing key is a no-op
	r.NoError(kv.Delete(_testNamespace, []byte("key")))
}

func testKVStoreForEach(t *testing.T, kv KVStore) {
	r := require.New(t)
	ctx := context.Background()
	r.NoError(kv.Start(ctx))
	defer func() { r.NoError(kv.Stop(ctx)) }()

	// iterating an absent namespace visits nothing
	r.NoError(kv.ForEach("absent", func(_, _ []byte) error {
		t.Fatal("unexpected visit")
		return nil
	}))

	// inserted out of order, visited in key order
	for _, k := range []string{"c", "a", "b"} {
		r.NoError(kv.Put(_testNamespace, []byte(k), []byte("v."+k)))
	}
	var keys []string
	r.NoError(kv.ForEach(_testNamespace, func(key, value []byte) error {
		keys = append(keys, string(key))
		r.Equal("v."+string(key), string(value))
		return nil
	}))
	r.Equal([]string{"a", "b", "c"}, keys)
}

func TestMemKVStore(t *testing.T) {
	t.Run("PutGet", func(t *testing.T) {
		testKVStorePutGet(t, NewMemKVStore())
	})
	t.Run("ForEach", func(t *testing.T) {
		testKVStoreForEach(t, NewMemKVStore())
	})
}

func TestBoltDB(t *testing.T) {
	newBolt := func(t *testing.T) KVStore {
		cfg := DefaultConfig
		cfg.DbPath = filepath.Join(t.TempDir(), "test.db")
		return NewBoltDB(cfg)
	}
	t.Run("PutGet", func(t *testing.T) {
		testKVStorePutGet(t, newBolt(t))
	})
	t.Run("ForEach", func(t *testing.T) {
		testKVStoreForEach(t, newBolt(t))
	})
	t.Run("Reopen", func(t *testing.T) {
		r := require.New(t)
		ctx := context.Background()
		cfg := DefaultConfig
		cfg.DbPath = filepath.Join(t.TempDir(), "test.db")

		kv := NewBoltDB(cfg)
		r.NoError(kv.Start(ctx))
		r.NoError(kv.Put(_testNamespace, []byte("key"), []byte("value")))
		r.NoError(kv.Stop(ctx))

		kv = NewBoltDB(cfg)
		r.NoError(kv.Start(ctx))
		v, err := kv.Get(_testNamespace, []byte("key"))
		r.NoError(err)
		r.Equal([]byte("value"), v)
		r.NoError(kv.Stop(ctx))
	})
}
