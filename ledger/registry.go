// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"context"
	"math/big"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/crowdfundproject/crowdfund-core/pkg/log"
)

// Commit allocates a campaign id and stores the commitment fingerprint. The
// caller becomes the pending owner and is the only identity allowed to
// reveal. No other validation happens here.
func (l *Ledger) Commit(ctx context.Context, fingerprint hash.Hash256) (campaignID uint64, err error) {
	defer func() { l.count("commit", err) }()
	if err = l.enter(); err != nil {
		return 0, err
	}
	defer l.exit()
	callerAddr, err := caller(ctx)
	if err != nil {
		return 0, err
	}
	if l.paused {
		return 0, ErrPaused
	}
	id := l.nextCampaignID
	l.nextCampaignID++
	l.campaigns[id] = &Campaign{
		ID:          id,
		State:       CampaignCommitted,
		Commitment:  fingerprint,
		Owner:       callerAddr,
		CreatedTime: l.clk.Now(),
	}
	l.emit(EventCampaignCommitted, Event{CampaignID: id, Caller: callerAddr.String()})
	return id, nil
}

// Reveal populates a committed campaign with its full field set, gated by the
// commitment fingerprint matching Fingerprint(spec, secret). A mismatched
// field or secret fails with ErrInvalidCommitment and mutates nothing.
func (l *Ledger) Reveal(ctx context.Context, campaignID uint64, spec *CampaignSpec, secret []byte) (err error) {
	defer func() { l.count("reveal", err) }()
	if err = l.enter(); err != nil {
		return err
	}
	defer l.exit()
	callerAddr, err := caller(ctx)
	if err != nil {
		return err
	}
	c, err := l.campaign(campaignID)
	if err != nil {
		return err
	}
	if !address.Equal(callerAddr, c.Owner) {
		return ErrNotOwner
	}
	if c.State == CampaignRevealed {
		return ErrAlreadyRevealed
	}
	if spec.Fingerprint(secret) != c.Commitment {
		return ErrInvalidCommitment
	}
	referralBps, creatorBps := spec.ReferralFeeBps, spec.CreatorFeeBps
	if spec.UseDefaultFees {
		referralBps = l.params.defaultReferralFeeBps
		creatorBps = l.params.defaultCreatorFeeBps
	}
	if err = l.validateSpec(spec, referralBps, creatorBps); err != nil {
		return err
	}

	c.State = CampaignRevealed
	c.Name = spec.Name
	c.Description = spec.Description
	c.CoverImageURL = spec.CoverImageURL
	c.Recipient = spec.Recipient
	c.StartTime = spec.StartTime
	c.EndTime = spec.EndTime
	c.AssetID = spec.AssetID
	c.TargetAmount = cloneAmount(spec.TargetAmount)
	c.MinAmount = cloneAmount(spec.MinAmount)
	c.MaxAmount = cloneAmount(spec.MaxAmount)
	c.TotalRaisedAmount = big.NewInt(0)
	c.NetRaisedAmount = big.NewInt(0)
	c.EscrowBalance = big.NewInt(0)
	c.ReferralFeeBps = referralBps
	c.CreatorFeeBps = creatorBps
	c.IsOfficial = address.Equal(c.Owner, c.Recipient)
	l.indexCampaign(c)

	log.L().Debug("Campaign revealed.",
		zap.Uint64("campaignID", c.ID),
		zap.String("owner", c.Owner.String()),
		zap.String("name", c.Name))
	l.emit(EventCampaignRevealed, Event{
		CampaignID: c.ID,
		Caller:     callerAddr.String(),
		Recipient:  c.Recipient.String(),
		Amount:     amountStr(c.TargetAmount),
	})
	return nil
}

func (l *Ledger) validateSpec(spec *CampaignSpec, referralBps, creatorBps uint32) error {
	if len(spec.Name) == 0 {
		return ErrEmptyName
	}
	if spec.Recipient == nil {
		return ErrEmptyRecipient
	}
	if !spec.StartTime.After(l.clk.Now()) {
		return ErrInvalidStartTime
	}
	if !spec.EndTime.IsZero() && !spec.EndTime.After(spec.StartTime) {
		return ErrInvalidEndTime
	}
	if err := validateAmount(spec.TargetAmount); err != nil {
		return err
	}
	if spec.TargetAmount.Sign() <= 0 {
		return errors.Wrap(ErrInvalidAmount, "target amount must be positive")
	}
	if spec.MinAmount != nil {
		if err := validateAmount(spec.MinAmount); err != nil {
			return err
		}
	}
	if spec.MaxAmount != nil {
		if err := validateAmount(spec.MaxAmount); err != nil {
			return err
		}
	}
	if err := checkMinMax(spec.MinAmount, spec.MaxAmount); err != nil {
		return err
	}
	return checkTotalFees(l.params.protocolFeeBps, referralBps, creatorBps)
}

func checkMinMax(min, max *big.Int) error {
	if min == nil || max == nil || min.Sign() == 0 || max.Sign() == 0 {
		return nil
	}
	if max.Cmp(min) < 0 {
		return errors.Wrap(ErrInvalidAmount, "max amount below min amount")
	}
	return nil
}

// Update changes the mutable fields of a revealed campaign. Owner only, and
// only before the campaign starts; a nil field is left unchanged. End-time
// extension is capped at MaxEndTimeExtension past the stored end time; an
// open-ended campaign may adopt any deadline after its start time, but a set
// deadline can never be cleared back to open-ended.
func (l *Ledger) Update(ctx context.Context, campaignID uint64, up *CampaignUpdate) (err error) {
	defer func() { l.count("update", err) }()
	if err = l.enter(); err != nil {
		return err
	}
	defer l.exit()
	callerAddr, err := caller(ctx)
	if err != nil {
		return err
	}
	c, err := l.revealedCampaign(campaignID)
	if err != nil {
		return err
	}
	if !address.Equal(callerAddr, c.Owner) {
		return ErrNotOwner
	}
	if c.started(l.clk.Now()) {
		return ErrAlreadyStarted
	}

	// validate against the would-be field values before mutating anything
	startTime, endTime := c.StartTime, c.EndTime
	if up.StartTime != nil {
		startTime = *up.StartTime
		if !startTime.After(l.clk.Now()) {
			return ErrInvalidStartTime
		}
	}
	if up.EndTime != nil {
		endTime = *up.EndTime
		if endTime.IsZero() {
			// a set deadline cannot be cleared: going open-ended and back
			// would sidestep the extension cap
			if !c.EndTime.IsZero() {
				return errors.Wrap(ErrInvalidEndTime, "cannot clear a set deadline")
			}
		} else {
			if !endTime.After(startTime) {
				return ErrInvalidEndTime
			}
			if !c.EndTime.IsZero() && endTime.After(c.EndTime.Add(l.cfg.MaxEndTimeExtension)) {
				return errors.Wrap(ErrInvalidEndTime, "extension beyond the allowed maximum")
			}
		}
	} else if up.StartTime != nil && !endTime.IsZero() && !endTime.After(startTime) {
		return ErrInvalidEndTime
	}
	if up.Name != nil && len(*up.Name) == 0 {
		return ErrEmptyName
	}
	if up.TargetAmount != nil {
		if err = validateAmount(up.TargetAmount); err != nil {
			return err
		}
		if up.TargetAmount.Sign() <= 0 {
			return errors.Wrap(ErrInvalidAmount, "target amount must be positive")
		}
	}
	minAmount, maxAmount := c.MinAmount, c.MaxAmount
	if up.MinAmount != nil {
		if err = validateAmount(up.MinAmount); err != nil {
			return err
		}
		minAmount = up.MinAmount
	}
	if up.MaxAmount != nil {
		if err = validateAmount(up.MaxAmount); err != nil {
			return err
		}
		maxAmount = up.MaxAmount
	}
	if err = checkMinMax(minAmount, maxAmount); err != nil {
		return err
	}
	referralBps, creatorBps := c.ReferralFeeBps, c.CreatorFeeBps
	if up.ReferralFeeBps != nil {
		referralBps = *up.ReferralFeeBps
	}
	if up.CreatorFeeBps != nil {
		creatorBps = *up.CreatorFeeBps
	}
	if err = checkTotalFees(l.params.protocolFeeBps, referralBps, creatorBps); err != nil {
		return err
	}

	if up.Name != nil {
		c.Name = *up.Name
	}
	if up.Description != nil {
		c.Description = *up.Description
	}
	if up.CoverImageURL != nil {
		c.CoverImageURL = *up.CoverImageURL
	}
	if up.Recipient != nil && !address.Equal(up.Recipient, c.Recipient) {
		l.campaignsByRecipient[c.Recipient.String()] = removeID(l.campaignsByRecipient[c.Recipient.String()], c.ID)
		c.Recipient = up.Recipient
		l.campaignsByRecipient[c.Recipient.String()] = append(l.campaignsByRecipient[c.Recipient.String()], c.ID)
		c.IsOfficial = address.Equal(c.Owner, c.Recipient)
	}
	c.StartTime = startTime
	c.EndTime = endTime
	if up.TargetAmount != nil {
		c.TargetAmount = cloneAmount(up.TargetAmount)
	}
	if up.MinAmount != nil {
		c.MinAmount = cloneAmount(up.MinAmount)
	}
	if up.MaxAmount != nil {
		c.MaxAmount = cloneAmount(up.MaxAmount)
	}
	c.ReferralFeeBps = referralBps
	c.CreatorFeeBps = creatorBps

	l.emit(EventCampaignUpdated, Event{CampaignID: c.ID, Caller: callerAddr.String()})
	return nil
}

// Delete removes a revealed campaign that has not started and has received no
// donations. Index removal is O(1) swap-with-last; index order is not a
// guaranteed property.
func (l *Ledger) Delete(ctx context.Context, campaignID uint64) (err error) {
	defer func() { l.count("delete", err) }()
	if err = l.enter(); err != nil {
		return err
	}
	defer l.exit()
	callerAddr, err := caller(ctx)
	if err != nil {
		return err
	}
	c, err := l.revealedCampaign(campaignID)
	if err != nil {
		return err
	}
	if !address.Equal(callerAddr, c.Owner) {
		return ErrNotOwner
	}
	if c.started(l.clk.Now()) {
		return ErrAlreadyStarted
	}
	if c.TotalRaisedAmount.Sign() > 0 {
		return ErrHasDonations
	}
	l.campaignsByOwner[c.Owner.String()] = removeID(l.campaignsByOwner[c.Owner.String()], c.ID)
	l.campaignsByRecipient[c.Recipient.String()] = removeID(l.campaignsByRecipient[c.Recipient.String()], c.ID)
	delete(l.campaigns, campaignID)
	l.emit(EventCampaignDeleted, Event{CampaignID: campaignID, Caller: callerAddr.String()})
	return nil
}

// SetOfficialStatus flips the campaign's official flag. Recipient only.
func (l *Ledger) SetOfficialStatus(ctx context.Context, campaignID uint64, official bool) (err error) {
	defer func() { l.count("set_official_status", err) }()
	if err = l.enter(); err != nil {
		return err
	}
	defer l.exit()
	callerAddr, err := caller(ctx)
	if err != nil {
		return err
	}
	c, err := l.revealedCampaign(campaignID)
	if err != nil {
		return err
	}
	if !address.Equal(callerAddr, c.Recipient) {
		return ErrNotRecipient
	}
	c.IsOfficial = official
	l.emit(EventOfficialStatusChanged, Event{CampaignID: c.ID, Caller: callerAddr.String()})
	return nil
}

func (l *Ledger) indexCampaign(c *Campaign) {
	l.campaignsByOwner[c.Owner.String()] = append(l.campaignsByOwner[c.Owner.String()], c.ID)
	l.campaignsByRecipient[c.Recipient.String()] = append(l.campaignsByRecipient[c.Recipient.String()], c.ID)
}

func removeID(ids []uint64, id uint64) []uint64 {
	for i, v := range ids {
		if v == id {
			ids[i] = ids[len(ids)-1]
			return ids[:len(ids)-1]
		}
	}
	return ids
}
