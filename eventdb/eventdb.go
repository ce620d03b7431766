// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package eventdb persists the ledger's audit stream for external indexing.
package eventdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/crowdfundproject/crowdfund-core/db"
	"github.com/crowdfundproject/crowdfund-core/ledger"
	"github.com/crowdfundproject/crowdfund-core/pkg/log"
)

const (
	// EventsNamespace holds every event keyed by big-endian sequence number
	EventsNamespace = "events"
	// campaign index namespaces hold sequence numbers per campaign id
	_campaignNamespaceFmt = "events.campaign.%d"
)

// Store is a KVStore-backed ledger.EventSink. Events are stored as JSON
// under a monotonic sequence number, with a per-campaign secondary index.
type Store struct {
	mu      sync.Mutex
	kv      db.KVStore
	nextSeq uint64
}

// NewStore creates an event store on the given KV store
func NewStore(kv db.KVStore) *Store {
	return &Store{kv: kv}
}

// Start opens the underlying store and recovers the next sequence number
func (s *Store) Start(ctx context.Context) error {
	if err := s.kv.Start(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq = 0
	return s.kv.ForEach(EventsNamespace, func(key, _ []byte) error {
		if seq := binary.BigEndian.Uint64(key); seq >= s.nextSeq {
			s.nextSeq = seq + 1
		}
		return nil
	})
}

// Stop closes the underlying store
func (s *Store) Stop(ctx context.Context) error {
	return s.kv.Stop(ctx)
}

// Emit persists the event. A write failure is logged and dropped; the audit
// stream is advisory and must never fail a ledger operation.
func (s *Store) Emit(e ledger.Event) {
	s.mu.Lock()
	seq := s.nextSeq
	s.nextSeq++
	s.mu.Unlock()

	value, err := json.Marshal(&e)
	if err != nil {
		log.L().Warn("Failed to marshal event.", zap.Error(err))
		return
	}
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seq)
	if err := s.kv.Put(EventsNamespace, key[:], value); err != nil {
		log.L().Warn("Failed to persist event.", zap.Uint64("seq", seq), zap.Error(err))
		return
	}
	if e.CampaignID != 0 {
		ns := fmt.Sprintf(_campaignNamespaceFmt, e.CampaignID)
		if err := s.kv.Put(ns, key[:], nil); err != nil {
			log.L().Warn("Failed to index event.", zap.Uint64("seq", seq), zap.Error(err))
		}
	}
}

// Events returns every stored event in sequence order
func (s *Store) Events() ([]ledger.Event, error) {
	var events []ledger.Event
	err := s.kv.ForEach(EventsNamespace, func(_, value []byte) error {
		var e ledger.Event
		if err := json.Unmarshal(value, &e); err != nil {
			return err
		}
		events = append(events, e)
		return nil
	})
	return events, err
}

// EventsByCampaign returns the campaign's events in sequence order
func (s *Store) EventsByCampaign(campaignID uint64) ([]ledger.Event, error) {
	var events []ledger.Event
	ns := fmt.Sprintf(_campaignNamespaceFmt, campaignID)
	err := s.kv.ForEach(ns, func(key, _ []byte) error {
		value, err := s.kv.Get(EventsNamespace, key)
		if err != nil {
			return err
		}
		var e ledger.Event
		if err := json.Unmarshal(value, &e); err != nil {
			return err
		}
		events = append(events, e)
		return nil
	})
	return events, err
}
