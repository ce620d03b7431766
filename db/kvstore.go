// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package db provides the KV store backing the event audit log.
package db

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrBucketNotExist indicates certain bucket does not exist in db
	ErrBucketNotExist = errors.New("bucket not exist in DB")
	// ErrNotExist indicates certain item does not exist in db
	ErrNotExist = errors.New("not exist in DB")
	// ErrIO indicates the generic error of DB I/O operation
	ErrIO = errors.New("DB I/O operation error")
)

// Config contains the DB configs
type Config struct {
	// DbPath is the path of the database file
	DbPath string `json:"dbPath" yaml:"dbPath"`
	// NumRetries is the number of retries of a failed write
	NumRetries uint8 `json:"numRetries" yaml:"numRetries"`
}

// DefaultConfig is the default DB config
var DefaultConfig = Config{
	DbPath:     "/var/data/crowdfund.events.db",
	NumRetries: 3,
}

// KVStore is the interface of KV store.
type KVStore interface {
	// Start opens the store
	Start(context.Context) error
	// Stop closes the store
	Stop(context.Context) error
	// Put insert or update a record identified by (namespace, key)
	Put(string, []byte, []byte) error
	// Get gets a record by (namespace, key)
	Get(string, []byte) ([]byte, error)
	// Delete deletes a record by (namespace, key)
	Delete(string, []byte) error
	// ForEach iterates all records of a namespace in key order
	ForEach(string, func(key, value []byte) error) error
}

const keyDelimiter = "."

// memKVStore is the in-memory implementation of KVStore for testing purpose
type memKVStore struct {
	mu     sync.Mutex
	bucket map[string]struct{}
	data   map[string][]byte
	keys   map[string][]string
}

// NewMemKVStore instantiates an in-memory KV store
func NewMemKVStore() KVStore {
	return &memKVStore{
		bucket: make(map[string]struct{}),
		data:   make(map[string][]byte),
		keys:   make(map[string][]string),
	}
}

func (m *memKVStore) Start(_ context.Context) error { return nil }

func (m *memKVStore) Stop(_ context.Context) error { return nil }

// Put inserts a <key, value> record
func (m *memKVStore) Put(namespace string, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bucket[namespace] = struct{}{}
	flat := namespace + keyDelimiter + string(key)
	if _, ok := m.data[flat]; !ok {
		m.keys[namespace] = insertSorted(m.keys[namespace], string(key))
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[flat] = v
	return nil
}

// Get retrieves a record
func (m *memKVStore) Get(namespace string, key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bucket[namespace]; !ok {
		return nil, errors.Wrapf(ErrBucketNotExist, "namespace = %s doesn't exist", namespace)
	}
	value, ok := m.data[namespace+keyDelimiter+string(key)]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "key = %x doesn't exist", key)
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Delete deletes a record
func (m *memKVStore) Delete(namespace string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	flat := namespace + keyDelimiter + string(key)
	if _, ok := m.data[flat]; ok {
		delete(m.data, flat)
		m.keys[namespace] = removeSorted(m.keys[namespace], string(key))
	}
	return nil
}

// ForEach iterates all records of a namespace in key order
func (m *memKVStore) ForEach(namespace string, fn func(key, value []byte) error) error {
	m.mu.Lock()
	keys := make([]string, len(m.keys[namespace]))
	copy(keys, m.keys[namespace])
	values := make([][]byte, 0, len(keys))
	for _, k := range keys {
		values = append(values, m.data[namespace+keyDelimiter+k])
	}
	m.mu.Unlock()
	for i, k := range keys {
		if err := fn([]byte(k), values[i]); err != nil {
			return err
		}
	}
	return nil
}

func insertSorted(keys []string, key string) []string {
	i := 0
	for ; i < len(keys); i++ {
		if keys[i] >= key {
			break
		}
	}
	keys = append(keys, "")
	copy(keys[i+1:], keys[i:])
	keys[i] = key
	return keys
}

func removeSorted(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
