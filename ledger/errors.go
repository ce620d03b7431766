// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import "github.com/pkg/errors"

// Error kinds. Every error returned by a ledger operation wraps exactly one of
// these, so callers can classify a failure with errors.Is without matching on
// the specific sentinel.
var (
	// ErrValidation indicates bad input shape; retryable with corrected input
	ErrValidation = errors.New("validation error")
	// ErrAuthorization indicates a wrong caller for a gated operation
	ErrAuthorization = errors.New("authorization error")
	// ErrState indicates an operation invalid in the current lifecycle state
	ErrState = errors.New("state error")
	// ErrTransfer indicates the value-transfer collaborator reported failure
	ErrTransfer = errors.New("transfer error")
)

// Errors
var (
	ErrCampaignNotFound   = wrapKind(ErrState, "campaign not found")
	ErrDonationNotFound   = wrapKind(ErrState, "donation not found")
	ErrInvalidCommitment  = wrapKind(ErrState, "commitment fingerprint mismatch")
	ErrAlreadyRevealed    = wrapKind(ErrState, "campaign already revealed")
	ErrNotRevealed        = wrapKind(ErrState, "campaign not revealed yet")
	ErrNotStarted         = wrapKind(ErrState, "campaign not started")
	ErrEnded              = wrapKind(ErrState, "campaign already ended")
	ErrAlreadyStarted     = wrapKind(ErrState, "campaign already started")
	ErrAlreadyClaimed     = wrapKind(ErrState, "refund already claimed")
	ErrNotRefundable      = wrapKind(ErrState, "campaign not refundable")
	ErrNothingToSettle    = wrapKind(ErrState, "no escrowed donations to settle")
	ErrMinNotReached      = wrapKind(ErrState, "minimum amount not reached")
	ErrHasDonations       = wrapKind(ErrState, "campaign has received donations")
	ErrPaused             = wrapKind(ErrState, "ledger is paused")
	ErrReentrantCall      = wrapKind(ErrState, "reentrant call")
	ErrNoProposal         = wrapKind(ErrState, "no matching proposal")
	ErrTimelockNotExpired = wrapKind(ErrState, "timelock period not expired")

	ErrEmptyName        = wrapKind(ErrValidation, "empty campaign name")
	ErrInvalidStartTime = wrapKind(ErrValidation, "start time not in the future")
	ErrInvalidEndTime   = wrapKind(ErrValidation, "invalid end time")
	ErrInvalidAmount    = wrapKind(ErrValidation, "invalid amount")
	ErrAmountTooLarge   = wrapKind(ErrValidation, "amount exceeds 256 bits")
	ErrExceedsMax       = wrapKind(ErrValidation, "donation exceeds campaign cap")
	ErrFeeTooHigh       = wrapKind(ErrValidation, "fee exceeds bound")
	ErrEmptyRecipient   = wrapKind(ErrValidation, "empty recipient address")

	ErrNotOwner     = wrapKind(ErrAuthorization, "caller is not the campaign owner")
	ErrNotRecipient = wrapKind(ErrAuthorization, "caller is not the campaign recipient")
	ErrNotAdmin     = wrapKind(ErrAuthorization, "caller is not the admin")
)

func wrapKind(kind error, msg string) error {
	return errors.Wrap(kind, msg)
}

// Kind reduces err to its error kind, or nil if err wraps none of them.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrAuthorization, ErrState, ErrTransfer} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
