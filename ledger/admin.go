// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/crowdfundproject/crowdfund-core/pkg/log"
)

const _protocolFeeOp = "updateProtocolFeeBps"

func (l *Ledger) assertAdmin(addr address.Address) error {
	if address.Equal(addr, l.admin) {
		return nil
	}
	return errors.Wrapf(ErrNotAdmin, "%s", addr.String())
}

// checkAdminFeeBps bounds the rate being set at 10% and re-validates the
// cross-fee-sum invariant with the full triple it would produce.
func checkAdminFeeBps(newBps, protocolBps, referralBps, creatorBps uint32) error {
	if newBps > MaxAdminFeeBps {
		return errors.Wrapf(ErrFeeTooHigh, "%d bps above the %d bps admin cap", newBps, MaxAdminFeeBps)
	}
	return checkTotalFees(protocolBps, referralBps, creatorBps)
}

// UpdateProtocolFeeBps sets the protocol fee rate immediately. Admin only.
func (l *Ledger) UpdateProtocolFeeBps(ctx context.Context, bps uint32) (err error) {
	defer func() { l.count("update_protocol_fee_bps", err) }()
	return l.adminSetFee(ctx, "protocolFeeBps", bps, func(bps uint32) error {
		if err := checkAdminFeeBps(bps, bps, l.params.defaultReferralFeeBps, l.params.defaultCreatorFeeBps); err != nil {
			return err
		}
		l.params.protocolFeeBps = bps
		return nil
	})
}

// UpdateDefaultReferralFeeBps sets the default referral fee rate. Admin only.
func (l *Ledger) UpdateDefaultReferralFeeBps(ctx context.Context, bps uint32) (err error) {
	defer func() { l.count("update_default_referral_fee_bps", err) }()
	return l.adminSetFee(ctx, "defaultReferralFeeBps", bps, func(bps uint32) error {
		if err := checkAdminFeeBps(bps, l.params.protocolFeeBps, bps, l.params.defaultCreatorFeeBps); err != nil {
			return err
		}
		l.params.defaultReferralFeeBps = bps
		return nil
	})
}

// UpdateDefaultCreatorFeeBps sets the default creator fee rate. Admin only.
func (l *Ledger) UpdateDefaultCreatorFeeBps(ctx context.Context, bps uint32) (err error) {
	defer func() { l.count("update_default_creator_fee_bps", err) }()
	return l.adminSetFee(ctx, "defaultCreatorFeeBps", bps, func(bps uint32) error {
		if err := checkAdminFeeBps(bps, l.params.protocolFeeBps, l.params.defaultReferralFeeBps, bps); err != nil {
			return err
		}
		l.params.defaultCreatorFeeBps = bps
		return nil
	})
}

func (l *Ledger) adminSetFee(ctx context.Context, param string, bps uint32, apply func(uint32) error) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()
	callerAddr, err := caller(ctx)
	if err != nil {
		return err
	}
	if err := l.assertAdmin(callerAddr); err != nil {
		return err
	}
	if err := apply(bps); err != nil {
		return err
	}
	log.L().Info("Fee parameter changed.", zap.String("param", param), zap.Uint32("bps", bps))
	l.emit(EventFeeParamChanged, Event{
		Caller: callerAddr.String(),
		Param:  param,
		Amount: fmt.Sprintf("%d", bps),
	})
	return nil
}

// UpdateProtocolFeeRecipient sets the protocol fee recipient. Admin only.
func (l *Ledger) UpdateProtocolFeeRecipient(ctx context.Context, recipient address.Address) (err error) {
	defer func() { l.count("update_protocol_fee_recipient", err) }()
	if err = l.enter(); err != nil {
		return err
	}
	defer l.exit()
	callerAddr, err := caller(ctx)
	if err != nil {
		return err
	}
	if err = l.assertAdmin(callerAddr); err != nil {
		return err
	}
	if recipient == nil {
		return ErrEmptyRecipient
	}
	l.params.protocolFeeRecipient = recipient
	l.emit(EventFeeParamChanged, Event{
		Caller:    callerAddr.String(),
		Param:     "protocolFeeRecipient",
		Recipient: recipient.String(),
	})
	return nil
}

// ProposeProtocolFeeUpdate records a protocol fee change executable after the
// timelock period. Proposals are keyed by the proposed value; re-proposing
// the same value restarts its clock. Admin only.
func (l *Ledger) ProposeProtocolFeeUpdate(ctx context.Context, bps uint32) (executableAt time.Time, err error) {
	defer func() { l.count("propose_protocol_fee_update", err) }()
	if err = l.enter(); err != nil {
		return time.Time{}, err
	}
	defer l.exit()
	callerAddr, err := caller(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if err = l.assertAdmin(callerAddr); err != nil {
		return time.Time{}, err
	}
	if err = checkAdminFeeBps(bps, bps, l.params.defaultReferralFeeBps, l.params.defaultCreatorFeeBps); err != nil {
		return time.Time{}, err
	}
	executableAt = l.clk.Now().Add(l.cfg.TimelockPeriod)
	l.proposals[proposalKey{op: _protocolFeeOp, feeBps: bps}] = executableAt
	l.emit(EventProtocolFeeProposed, Event{
		Caller: callerAddr.String(),
		Param:  _protocolFeeOp,
		Amount: fmt.Sprintf("%d", bps),
	})
	return executableAt, nil
}

// ExecuteProtocolFeeUpdate applies a previously proposed protocol fee change
// once its timelock has expired, consuming the proposal. Admin only.
func (l *Ledger) ExecuteProtocolFeeUpdate(ctx context.Context, bps uint32) (err error) {
	defer func() { l.count("execute_protocol_fee_update", err) }()
	if err = l.enter(); err != nil {
		return err
	}
	defer l.exit()
	callerAddr, err := caller(ctx)
	if err != nil {
		return err
	}
	if err = l.assertAdmin(callerAddr); err != nil {
		return err
	}
	key := proposalKey{op: _protocolFeeOp, feeBps: bps}
	executableAt, ok := l.proposals[key]
	if !ok {
		return ErrNoProposal
	}
	if l.clk.Now().Before(executableAt) {
		return ErrTimelockNotExpired
	}
	// bounds may have tightened since the proposal; re-validate
	if err = checkAdminFeeBps(bps, bps, l.params.defaultReferralFeeBps, l.params.defaultCreatorFeeBps); err != nil {
		return err
	}
	delete(l.proposals, key)
	l.params.protocolFeeBps = bps
	l.emit(EventProtocolFeeExecuted, Event{
		Caller: callerAddr.String(),
		Param:  _protocolFeeOp,
		Amount: fmt.Sprintf("%d", bps),
	})
	return nil
}

// Pause gates campaign commitment and donation. Reveals, updates, deletions,
// refunds, settlement, and reads stay available: pausing stops new exposure,
// it does not trap existing funds. Admin only.
func (l *Ledger) Pause(ctx context.Context) (err error) {
	defer func() { l.count("pause", err) }()
	return l.setPaused(ctx, true)
}

// Unpause lifts the pause. Admin only.
func (l *Ledger) Unpause(ctx context.Context) (err error) {
	defer func() { l.count("unpause", err) }()
	return l.setPaused(ctx, false)
}

func (l *Ledger) setPaused(ctx context.Context, paused bool) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()
	callerAddr, err := caller(ctx)
	if err != nil {
		return err
	}
	if err := l.assertAdmin(callerAddr); err != nil {
		return err
	}
	l.paused = paused
	typ := EventUnpaused
	if paused {
		typ = EventPaused
	}
	l.emit(typ, Event{Caller: callerAddr.String()})
	return nil
}
