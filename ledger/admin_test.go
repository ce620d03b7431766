// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crowdfundproject/crowdfund-core/asset"
)

func TestUpdateFeeParams(t *testing.T) {
	r := require.New(t)
	tl := newTestLedger(t)

	r.ErrorIs(tl.UpdateProtocolFeeBps(ctxFor(_stranger), 100), ErrNotAdmin)
	r.ErrorIs(tl.UpdateProtocolFeeBps(ctxFor(_admin), 1_001), ErrFeeTooHigh)
	r.NoError(tl.UpdateProtocolFeeBps(ctxFor(_admin), 500))
	r.Equal(uint32(500), tl.ProtocolFeeBps())

	r.ErrorIs(tl.UpdateDefaultReferralFeeBps(ctxFor(_stranger), 100), ErrNotAdmin)
	r.ErrorIs(tl.UpdateDefaultReferralFeeBps(ctxFor(_admin), 1_001), ErrFeeTooHigh)
	r.NoError(tl.UpdateDefaultReferralFeeBps(ctxFor(_admin), 50))
	r.Equal(uint32(50), tl.DefaultReferralFeeBps())

	r.ErrorIs(tl.UpdateDefaultCreatorFeeBps(ctxFor(_stranger), 100), ErrNotAdmin)
	r.ErrorIs(tl.UpdateDefaultCreatorFeeBps(ctxFor(_admin), 1_001), ErrFeeTooHigh)
	r.NoError(tl.UpdateDefaultCreatorFeeBps(ctxFor(_admin), 75))
	r.Equal(uint32(75), tl.DefaultCreatorFeeBps())

	// the cap binds each admin rate at 10%
	r.NoError(tl.UpdateProtocolFeeBps(ctxFor(_admin), 1_000))
	r.Equal(uint32(1_000), tl.ProtocolFeeBps())
}

func TestUpdateProtocolFeeRecipient(t *testing.T) {
	r := require.New(t)
	tl := newTestLedger(t)

	r.ErrorIs(tl.UpdateProtocolFeeRecipient(ctxFor(_stranger), _stranger), ErrNotAdmin)
	r.ErrorIs(tl.UpdateProtocolFeeRecipient(ctxFor(_admin), nil), ErrEmptyRecipient)
	r.NoError(tl.UpdateProtocolFeeRecipient(ctxFor(_admin), _stranger))
	r.Equal(_stranger.String(), tl.ProtocolFeeRecipient().String())
}

func TestProtocolFeeTimelock(t *testing.T) {
	r := require.New(t)
	tl := newTestLedger(t)

	_, err := tl.ProposeProtocolFeeUpdate(ctxFor(_stranger), 500)
	r.ErrorIs(err, ErrNotAdmin)
	_, err = tl.ProposeProtocolFeeUpdate(ctxFor(_admin), 1_001)
	r.ErrorIs(err, ErrFeeTooHigh)

	executableAt, err := tl.ProposeProtocolFeeUpdate(ctxFor(_admin), 500)
	r.NoError(err)
	r.Equal(tl.clk.Now().Add(48*time.Hour), executableAt)

	// not before the timelock expires
	r.ErrorIs(tl.ExecuteProtocolFeeUpdate(ctxFor(_admin), 500), ErrTimelockNotExpired)
	tl.clk.Add(47 * time.Hour)
	r.ErrorIs(tl.ExecuteProtocolFeeUpdate(ctxFor(_admin), 500), ErrTimelockNotExpired)
	r.Equal(uint32(250), tl.ProtocolFeeBps())

	// only a matching proposal can be executed
	tl.clk.Add(time.Hour)
	r.ErrorIs(tl.ExecuteProtocolFeeUpdate(ctxFor(_admin), 300), ErrNoProposal)
	r.ErrorIs(tl.ExecuteProtocolFeeUpdate(ctxFor(_stranger), 500), ErrNotAdmin)

	r.NoError(tl.ExecuteProtocolFeeUpdate(ctxFor(_admin), 500))
	r.Equal(uint32(500), tl.ProtocolFeeBps())

	// a proposal is single use
	r.ErrorIs(tl.ExecuteProtocolFeeUpdate(ctxFor(_admin), 500), ErrNoProposal)

	r.Equal([]EventType{
		EventProtocolFeeProposed,
		EventProtocolFeeExecuted,
	}, tl.eventTypes())
}

func TestReproposeRestartsTimelock(t *testing.T) {
	r := require.New(t)
	tl := newTestLedger(t)

	_, err := tl.ProposeProtocolFeeUpdate(ctxFor(_admin), 500)
	r.NoError(err)
	tl.clk.Add(47 * time.Hour)
	_, err = tl.ProposeProtocolFeeUpdate(ctxFor(_admin), 500)
	r.NoError(err)
	tl.clk.Add(time.Hour)
	r.ErrorIs(tl.ExecuteProtocolFeeUpdate(ctxFor(_admin), 500), ErrTimelockNotExpired)
	tl.clk.Add(47 * time.Hour)
	r.NoError(tl.ExecuteProtocolFeeUpdate(ctxFor(_admin), 500))
}

func TestPauseUnpause(t *testing.T) {
	r := require.New(t)
	tl := newTestLedger(t)

	r.ErrorIs(tl.Pause(ctxFor(_stranger)), ErrNotAdmin)
	r.False(tl.Paused())

	r.NoError(tl.Pause(ctxFor(_admin)))
	r.True(tl.Paused())
	_, err := tl.Commit(ctxFor(_owner), tl.newSpec().Fingerprint(_secret))
	r.ErrorIs(err, ErrPaused)

	r.ErrorIs(tl.Unpause(ctxFor(_stranger)), ErrNotAdmin)
	r.NoError(tl.Unpause(ctxFor(_admin)))
	r.False(tl.Paused())
	_, err = tl.Commit(ctxFor(_owner), tl.newSpec().Fingerprint(_secret))
	r.NoError(err)

	r.Equal([]EventType{
		EventPaused,
		EventUnpaused,
		EventCampaignCommitted,
	}, tl.eventTypes())
}

func TestNewRejectsBadConfig(t *testing.T) {
	r := require.New(t)
	bank := asset.NewBank()

	cfg := DefaultConfig
	cfg.Admin = _admin.String()
	cfg.ProtocolFeeRecipient = _feeRecipient.String()
	_, err := New(cfg, bank)
	r.NoError(err)

	bad := cfg
	bad.Admin = "not an address"
	_, err = New(bad, bank)
	r.Error(err)

	bad = cfg
	bad.ProtocolFeeRecipient = ""
	_, err = New(bad, bank)
	r.Error(err)

	bad = cfg
	bad.ProtocolFeeBps = 10_001
	_, err = New(bad, bank)
	r.ErrorIs(err, ErrFeeTooHigh)

	bad = cfg
	bad.TimelockPeriod = 0
	_, err = New(bad, bank)
	r.Error(err)

	_, err = New(cfg, nil)
	r.Error(err)
}
