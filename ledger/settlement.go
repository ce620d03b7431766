// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"context"
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/crowdfundproject/crowdfund-core/pkg/log"
)

// Donate records a donation of amount to the campaign, splitting it into the
// protocol, creator, and referrer fees plus the net amount. While the
// campaign's minimum is unmet the value is held in escrow; otherwise each
// component is paid out immediately. A failed payout leaves the donation
// recorded with that component unpaid and retryable through
// ProcessEscrowedDonations; the donation id is returned either way.
func (l *Ledger) Donate(
	ctx context.Context,
	campaignID uint64,
	amount *big.Int,
	message string,
	referrer address.Address,
) (donationID uint64, err error) {
	defer func() { l.count("donate", err) }()
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
	c, err := l.revealedCampaign(campaignID)
	if err != nil {
		return 0, err
	}
	now := l.clk.Now()
	if !c.started(now) {
		return 0, ErrNotStarted
	}
	if c.ended(now) {
		return 0, ErrEnded
	}
	if err = validateAmount(amount); err != nil {
		return 0, err
	}
	if amount.Sign() == 0 {
		return 0, errors.Wrap(ErrInvalidAmount, "zero donation")
	}
	if c.MaxAmount.Sign() > 0 &&
		new(big.Int).Add(c.TotalRaisedAmount, amount).Cmp(c.MaxAmount) > 0 {
		return 0, ErrExceedsMax
	}

	protocolFee := computeFee(amount, l.params.protocolFeeBps)
	creatorFee := computeFee(amount, c.CreatorFeeBps)
	referrerFee := big.NewInt(0)
	if referrer != nil {
		referrerFee = computeFee(amount, c.ReferralFeeBps)
	}
	netAmount := new(big.Int).Sub(amount, protocolFee)
	netAmount.Sub(netAmount, creatorFee)
	netAmount.Sub(netAmount, referrerFee)
	// fee rates were bounded at reveal, so this cannot go negative; check anyway
	if netAmount.Sign() < 0 {
		return 0, errors.Wrap(ErrInvalidAmount, "fees exceed donation amount")
	}

	id := l.nextDonationID
	l.nextDonationID++
	d := &Donation{
		ID:          id,
		CampaignID:  campaignID,
		Donor:       callerAddr,
		TotalAmount: cloneAmount(amount),
		NetAmount:   netAmount,
		Message:     message,
		DonatedTime: now,
		ProtocolFee: protocolFee,
		Referrer:    referrer,
		ReferrerFee: referrerFee,
		CreatorFee:  creatorFee,
		// zero components have nothing to pay
		NetPaid:         netAmount.Sign() == 0,
		ProtocolFeePaid: protocolFee.Sign() == 0,
		CreatorFeePaid:  creatorFee.Sign() == 0,
		ReferrerFeePaid: referrerFee.Sign() == 0,
	}
	l.donations[id] = d
	l.donationsByCampaign[campaignID] = append(l.donationsByCampaign[campaignID], id)
	l.donationsByDonor[callerAddr.String()] = append(l.donationsByDonor[callerAddr.String()], id)
	c.TotalRaisedAmount.Add(c.TotalRaisedAmount, amount)
	c.NetRaisedAmount.Add(c.NetRaisedAmount, netAmount)

	l.emit(EventDonationMade, Event{
		CampaignID: campaignID,
		DonationID: id,
		Caller:     callerAddr.String(),
		Amount:     amountStr(amount),
	})

	if c.belowMin() {
		// held: no transfers until the minimum is reached or refunds open
		c.EscrowBalance.Add(c.EscrowBalance, amount)
		return id, nil
	}

	// settled immediately: each component is independent and flips its paid
	// marker before the transfer is attempted
	if err = l.payComponent(&d.NetPaid, c.Recipient, d.NetAmount); err != nil {
		return id, err
	}
	if err = l.payDonationFees(c, d, nil); err != nil {
		return id, err
	}
	l.emit(EventDonationFeesSettled, Event{CampaignID: campaignID, DonationID: id})
	return id, nil
}

// ProcessEscrowedDonations settles a campaign whose minimum has been reached.
// The first successful call drains the escrow balance: the held net principal
// goes to the recipient in one transfer. Fee components are then paid out per
// donation, at most batchLimit transfers per call (0 means the configured
// default); the per-component paid markers make a later call resume where the
// previous one stopped instead of paying anyone twice. Returns the number of
// fee transfers performed.
func (l *Ledger) ProcessEscrowedDonations(ctx context.Context, campaignID uint64, batchLimit uint32) (transfers int, err error) {
	defer func() { l.count("process_escrowed_donations", err) }()
	if err = l.enter(); err != nil {
		return 0, err
	}
	defer l.exit()
	if _, err = caller(ctx); err != nil {
		return 0, err
	}
	c, err := l.revealedCampaign(campaignID)
	if err != nil {
		return 0, err
	}
	if c.belowMin() {
		return 0, ErrMinNotReached
	}
	if batchLimit == 0 {
		batchLimit = l.cfg.DefaultBatchLimit
	}

	// drain the held net principal in one transfer
	var unpaid []*Donation
	heldNet := big.NewInt(0)
	for _, id := range l.donationsByCampaign[campaignID] {
		d := l.donations[id]
		if !d.NetPaid {
			unpaid = append(unpaid, d)
			heldNet.Add(heldNet, d.NetAmount)
		}
	}
	if heldNet.Sign() > 0 || c.EscrowBalance.Sign() > 0 {
		escrowed := c.EscrowBalance
		c.EscrowBalance = big.NewInt(0)
		for _, d := range unpaid {
			d.NetPaid = true
		}
		if err = l.transfer(c.Recipient, heldNet); err != nil {
			c.EscrowBalance = escrowed
			for _, d := range unpaid {
				d.NetPaid = false
			}
			return 0, err
		}
		log.L().Info("Escrow settled.",
			zap.Uint64("campaignID", campaignID),
			zap.String("escrowed", amountStr(escrowed)),
			zap.String("netPrincipal", amountStr(heldNet)))
		l.emit(EventEscrowSettled, Event{
			CampaignID: campaignID,
			Recipient:  c.Recipient.String(),
			Amount:     amountStr(heldNet),
		})
	}

	// distribute fee components, newest call picking up where the last left off
	budget := int(batchLimit)
	settledAny := false
	for _, id := range l.donationsByCampaign[campaignID] {
		d := l.donations[id]
		if d.FeesSettled() {
			continue
		}
		if budget <= 0 {
			break
		}
		if err = l.payDonationFees(c, d, &budget); err != nil {
			return int(batchLimit) - budget, err
		}
		if d.FeesSettled() {
			settledAny = true
			l.emit(EventDonationFeesSettled, Event{CampaignID: campaignID, DonationID: d.ID})
		}
	}
	if heldNet.Sign() == 0 && !settledAny && int(batchLimit) == budget {
		return 0, ErrNothingToSettle
	}
	return int(batchLimit) - budget, nil
}

// payDonationFees pays the unpaid fee components of d. A nil budget means
// unbounded; otherwise each attempted transfer decrements it and the loop
// stops when it hits zero.
func (l *Ledger) payDonationFees(c *Campaign, d *Donation, budget *int) error {
	type component struct {
		paid      *bool
		recipient address.Address
		amount    *big.Int
	}
	components := []component{
		{&d.ProtocolFeePaid, l.params.protocolFeeRecipient, d.ProtocolFee},
		{&d.CreatorFeePaid, c.Owner, d.CreatorFee},
		{&d.ReferrerFeePaid, d.Referrer, d.ReferrerFee},
	}
	for _, comp := range components {
		if *comp.paid {
			continue
		}
		if budget != nil {
			if *budget <= 0 {
				return nil
			}
			*budget--
		}
		*comp.paid = true
		if err := l.transfer(comp.recipient, comp.amount); err != nil {
			*comp.paid = false
			return err
		}
	}
	return nil
}

// payComponent flips the paid marker, then transfers; the marker is reverted
// only when the transfer reported failure.
func (l *Ledger) payComponent(paid *bool, recipient address.Address, amount *big.Int) error {
	if *paid {
		return nil
	}
	*paid = true
	if err := l.transfer(recipient, amount); err != nil {
		*paid = false
		return err
	}
	return nil
}

// ClaimRefund returns a donation's full amount to its donor, once, after the
// campaign's deadline has passed with the minimum unmet. Pull-payment: anyone
// may trigger the claim, the value always goes to the donor.
func (l *Ledger) ClaimRefund(ctx context.Context, donationID uint64) (err error) {
	defer func() { l.count("claim_refund", err) }()
	if err = l.enter(); err != nil {
		return err
	}
	defer l.exit()
	callerAddr, err := caller(ctx)
	if err != nil {
		return err
	}
	d, ok := l.donations[donationID]
	if !ok {
		return ErrDonationNotFound
	}
	c, err := l.revealedCampaign(d.CampaignID)
	if err != nil {
		return err
	}
	if !c.refundable(l.clk.Now()) {
		return ErrNotRefundable
	}
	if d.RefundClaimed {
		return ErrAlreadyClaimed
	}
	// flip before the transfer so a reentrant claim hits ErrAlreadyClaimed
	d.RefundClaimed = true
	if err = l.transfer(d.Donor, d.TotalAmount); err != nil {
		d.RefundClaimed = false
		return err
	}
	l.emit(EventRefundClaimed, Event{
		CampaignID: d.CampaignID,
		DonationID: donationID,
		Caller:     callerAddr.String(),
		Recipient:  d.Donor.String(),
		Amount:     amountStr(d.TotalAmount),
	})
	return nil
}

// ClaimAllRefunds claims every unclaimed refund of the campaign. A failing
// transfer is isolated to its own donation: it stays unclaimed and retryable
// while the loop keeps going. Returns the number of refunds paid; the error,
// if any, reports how many donations failed.
func (l *Ledger) ClaimAllRefunds(ctx context.Context, campaignID uint64) (claimed int, err error) {
	defer func() { l.count("claim_all_refunds", err) }()
	if err = l.enter(); err != nil {
		return 0, err
	}
	defer l.exit()
	callerAddr, err := caller(ctx)
	if err != nil {
		return 0, err
	}
	c, err := l.revealedCampaign(campaignID)
	if err != nil {
		return 0, err
	}
	if !c.refundable(l.clk.Now()) {
		return 0, ErrNotRefundable
	}
	failed := 0
	for _, id := range l.donationsByCampaign[campaignID] {
		d := l.donations[id]
		if d.RefundClaimed {
			continue
		}
		d.RefundClaimed = true
		if terr := l.transfer(d.Donor, d.TotalAmount); terr != nil {
			d.RefundClaimed = false
			failed++
			continue
		}
		claimed++
		l.emit(EventRefundClaimed, Event{
			CampaignID: campaignID,
			DonationID: id,
			Caller:     callerAddr.String(),
			Recipient:  d.Donor.String(),
			Amount:     amountStr(d.TotalAmount),
		})
	}
	if failed > 0 {
		return claimed, errors.Wrapf(ErrTransfer, "%d of %d refunds failed", failed, failed+claimed)
	}
	return claimed, nil
}
