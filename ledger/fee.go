// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const (
	// BpsDenominator is the fee denominator, 10000 basis points = 100%
	BpsDenominator = 10000
	// MaxAdminFeeBps caps each admin-settable fee at 10%
	MaxAdminFeeBps = 1000
)

var _bpsDenominator = big.NewInt(BpsDenominator)

// computeFee returns amount*bps/10000 with floor division. Amounts are bounded
// to 256 bits on entry (see validateAmount), so the product stays exact in
// big.Int and cannot wrap.
func computeFee(amount *big.Int, bps uint32) *big.Int {
	fee := new(big.Int).Mul(amount, big.NewInt(int64(bps)))
	return fee.Div(fee, _bpsDenominator)
}

// checkTotalFees fails if the three fee rates together exceed 100%. It runs
// whenever any of the rates is set and when a campaign is revealed with a
// custom referral or creator fee.
func checkTotalFees(protocolBps, referralBps, creatorBps uint32) error {
	if protocolBps > BpsDenominator {
		return errors.Wrap(ErrFeeTooHigh, "protocol fee above 10000 bps")
	}
	if referralBps > BpsDenominator {
		return errors.Wrap(ErrFeeTooHigh, "referral fee above 10000 bps")
	}
	if creatorBps > BpsDenominator {
		return errors.Wrap(ErrFeeTooHigh, "creator fee above 10000 bps")
	}
	if uint64(protocolBps)+uint64(referralBps)+uint64(creatorBps) > BpsDenominator {
		return errors.Wrap(ErrFeeTooHigh, "total fees above 10000 bps")
	}
	return nil
}

// validateAmount rejects nil, negative, and >256-bit amounts. Rejecting
// oversized values here is what lets the fee arithmetic stay exact instead of
// silently wrapping on a fixed-width multiply.
func validateAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.Wrap(ErrInvalidAmount, "nil or negative value")
	}
	if _, overflow := uint256.FromBig(amount); overflow {
		return ErrAmountTooLarge
	}
	return nil
}
