// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"math/big"
	"sync"
	"time"

	"github.com/iotexproject/iotex-address/address"
)

// EventType names a mutating ledger operation for the audit stream
type EventType string

// Event types
const (
	EventCampaignCommitted     EventType = "campaign_committed"
	EventCampaignRevealed      EventType = "campaign_revealed"
	EventCampaignUpdated       EventType = "campaign_updated"
	EventCampaignDeleted       EventType = "campaign_deleted"
	EventOfficialStatusChanged EventType = "official_status_changed"
	EventDonationMade          EventType = "donation_made"
	EventEscrowSettled         EventType = "escrow_settled"
	EventDonationFeesSettled   EventType = "donation_fees_settled"
	EventRefundClaimed         EventType = "refund_claimed"
	EventFeeParamChanged       EventType = "fee_param_changed"
	EventProtocolFeeProposed   EventType = "protocol_fee_proposed"
	EventProtocolFeeExecuted   EventType = "protocol_fee_executed"
	EventPaused                EventType = "paused"
	EventUnpaused              EventType = "unpaused"
)

// Event is the structured record a mutating operation emits for external
// audit and indexing. Batched operations emit one event per settled item.
type Event struct {
	Type       EventType `json:"type"`
	CampaignID uint64    `json:"campaignId,omitempty"`
	DonationID uint64    `json:"donationId,omitempty"`
	Caller     string    `json:"caller,omitempty"`
	Recipient  string    `json:"recipient,omitempty"`
	// Amount is the moved or configured value in decimal form
	Amount string `json:"amount,omitempty"`
	// Param names the changed parameter for admin events
	Param     string    `json:"param,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventSink consumes the ledger's audit stream. Emit must not call back into
// the ledger.
type EventSink interface {
	Emit(Event)
}

// MemorySink buffers events in memory, mainly for tests
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates an empty in-memory sink
func NewMemorySink() *MemorySink { return &MemorySink{} }

// Emit appends the event
func (s *MemorySink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns a copy of all buffered events
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

type nopSink struct{}

func (nopSink) Emit(Event) {}

func (l *Ledger) emit(typ EventType, e Event) {
	e.Type = typ
	e.Timestamp = l.clk.Now()
	l.sink.Emit(e)
}

func amountStr(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func addrStr(a address.Address) string {
	if a == nil {
		return ""
	}
	return a.String()
}
