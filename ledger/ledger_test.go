// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/stretchr/testify/require"

	"github.com/crowdfundproject/crowdfund-core/asset"
)

var (
	_admin        = testAddr("admin")
	_feeRecipient = testAddr("feeRecipient")
	_owner        = testAddr("owner")
	_recipient    = testAddr("recipient")
	_donor        = testAddr("donor")
	_donor2       = testAddr("donor2")
	_referrer     = testAddr("referrer")
	_stranger     = testAddr("stranger")

	_secret = []byte("under the mattress")
)

func testAddr(seed string) address.Address {
	h := hash.Hash160b([]byte(seed))
	addr, err := address.FromBytes(h[:])
	if err != nil {
		panic(err)
	}
	return addr
}

func ctxFor(addr address.Address) context.Context {
	return WithActionCtx(context.Background(), ActionCtx{Caller: addr})
}

type testLedger struct {
	*Ledger
	bank *asset.Bank
	clk  *clock.Mock
	sink *MemorySink
}

func newTestLedger(t *testing.T) *testLedger {
	r := require.New(t)
	cfg := Config{
		Admin:                 _admin.String(),
		ProtocolFeeBps:        250,
		ProtocolFeeRecipient:  _feeRecipient.String(),
		DefaultReferralFeeBps: 100,
		DefaultCreatorFeeBps:  200,
		TimelockPeriod:        48 * time.Hour,
		MaxEndTimeExtension:   7 * 24 * time.Hour,
		DefaultBatchLimit:     64,
	}
	clk := clock.NewMock()
	bank := asset.NewBank()
	sink := NewMemorySink()
	l, err := New(cfg, bank, WithClock(clk), WithEventSink(sink))
	r.NoError(err)
	return &testLedger{Ledger: l, bank: bank, clk: clk, sink: sink}
}

// newSpec returns a spec starting one hour out with a 30-day deadline, no
// minimum, no cap, and a 100/300 bps referral/creator fee split
func (tl *testLedger) newSpec() *CampaignSpec {
	return &CampaignSpec{
		Name:           "save the reef",
		Description:    "coral restoration fund",
		CoverImageURL:  "https://example.org/reef.png",
		Recipient:      _recipient,
		StartTime:      tl.clk.Now().Add(time.Hour),
		EndTime:        tl.clk.Now().Add(30 * 24 * time.Hour),
		TargetAmount:   big.NewInt(10_000_000),
		MinAmount:      big.NewInt(0),
		MaxAmount:      big.NewInt(0),
		ReferralFeeBps: 100,
		CreatorFeeBps:  300,
	}
}

func (tl *testLedger) commitReveal(t *testing.T, spec *CampaignSpec) uint64 {
	r := require.New(t)
	id, err := tl.Commit(ctxFor(_owner), spec.Fingerprint(_secret))
	r.NoError(err)
	r.NoError(tl.Reveal(ctxFor(_owner), id, spec, _secret))
	return id
}

// startCampaign reveals spec and advances the clock past its start time
func (tl *testLedger) startCampaign(t *testing.T, spec *CampaignSpec) uint64 {
	id := tl.commitReveal(t, spec)
	tl.clk.Add(2 * time.Hour)
	return id
}

func (tl *testLedger) eventTypes() []EventType {
	events := tl.sink.Events()
	types := make([]EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}
