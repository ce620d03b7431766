// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"math/big"
	"time"

	"github.com/iotexproject/iotex-address/address"
)

// Donation is a single donation record. The fee split is fixed forever at
// creation and always satisfies
// ProtocolFee + CreatorFee + ReferrerFee + NetAmount == TotalAmount.
type Donation struct {
	ID          uint64
	CampaignID  uint64
	Donor       address.Address
	TotalAmount *big.Int
	NetAmount   *big.Int
	Message     string
	DonatedTime time.Time
	ProtocolFee *big.Int
	// Referrer is nil when the donation carried no referral
	Referrer    address.Address
	ReferrerFee *big.Int
	CreatorFee  *big.Int
	// RefundClaimed is monotonic false to true, flipped exactly once by a
	// refund claim
	RefundClaimed bool

	// Per-component payment markers. Each flips to true before the matching
	// transfer is attempted and is reverted only when that transfer reported
	// failure, so every component is paid at most once and a failed payment
	// stays retryable.
	NetPaid         bool
	ProtocolFeePaid bool
	CreatorFeePaid  bool
	ReferrerFeePaid bool
}

// FeesSettled reports whether every fee component of the donation has been
// paid out. Zero-valued components count as paid.
func (d *Donation) FeesSettled() bool {
	return d.ProtocolFeePaid && d.CreatorFeePaid && d.ReferrerFeePaid
}

// clone deep-copies the record so accessors never leak shared big.Int values
func (d *Donation) clone() *Donation {
	dd := *d
	dd.TotalAmount = cloneAmount(d.TotalAmount)
	dd.NetAmount = cloneAmount(d.NetAmount)
	dd.ProtocolFee = cloneAmount(d.ProtocolFee)
	dd.ReferrerFee = cloneAmount(d.ReferrerFee)
	dd.CreatorFee = cloneAmount(d.CreatorFee)
	return &dd
}
