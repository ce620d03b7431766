// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"time"

	"github.com/holiman/uint256"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
)

// CampaignState is the lifecycle tag of a campaign record. A committed
// campaign holds only its commitment fingerprint; a revealed campaign holds
// the full field set. The tag is explicit so the fingerprint and the revealed
// fields never share a slot.
type CampaignState uint8

const (
	// CampaignCommitted means only the commitment fingerprint is stored
	CampaignCommitted CampaignState = iota
	// CampaignRevealed means the full campaign fields are populated
	CampaignRevealed
)

type (
	// Campaign is a fundraising campaign record
	Campaign struct {
		ID            uint64
		State         CampaignState
		Commitment    hash.Hash256
		Owner         address.Address
		Name          string
		Description   string
		CoverImageURL string
		Recipient     address.Address
		StartTime     time.Time
		// EndTime is zero for an open-ended campaign
		EndTime     time.Time
		CreatedTime time.Time
		// AssetID is 0 for the native asset
		AssetID      uint64
		TargetAmount *big.Int
		// MinAmount is zero for no minimum
		MinAmount *big.Int
		// MaxAmount is zero for no cap
		MaxAmount         *big.Int
		TotalRaisedAmount *big.Int
		NetRaisedAmount   *big.Int
		EscrowBalance     *big.Int
		ReferralFeeBps    uint32
		CreatorFeeBps     uint32
		IsOfficial        bool
	}

	// CampaignSpec is the full field set revealed against a prior commitment.
	// The fingerprint covers every field plus the secret.
	CampaignSpec struct {
		Name          string
		Description   string
		CoverImageURL string
		Recipient     address.Address
		StartTime     time.Time
		EndTime       time.Time
		AssetID       uint64
		TargetAmount  *big.Int
		MinAmount     *big.Int
		MaxAmount     *big.Int
		// UseDefaultFees selects the ledger's default referral/creator fee
		// rates at reveal time instead of the two explicit rates below
		UseDefaultFees bool
		ReferralFeeBps uint32
		CreatorFeeBps  uint32
	}

	// CampaignUpdate carries optional field updates; a nil field is left
	// unchanged. Pointer fields distinguish "leave unchanged" from an
	// intentional reset to zero or empty.
	CampaignUpdate struct {
		Name           *string
		Description    *string
		CoverImageURL  *string
		Recipient      address.Address
		StartTime      *time.Time
		EndTime        *time.Time
		TargetAmount   *big.Int
		MinAmount      *big.Int
		MaxAmount      *big.Int
		ReferralFeeBps *uint32
		CreatorFeeBps  *uint32
	}
)

// Fingerprint computes the commitment fingerprint over the spec fields and the
// secret. An observer of the commitment cannot reproduce it without both.
func (s *CampaignSpec) Fingerprint(secret []byte) hash.Hash256 {
	var buf bytes.Buffer
	writeString(&buf, s.Name)
	writeString(&buf, s.Description)
	writeString(&buf, s.CoverImageURL)
	writeAddress(&buf, s.Recipient)
	writeTime(&buf, s.StartTime)
	writeTime(&buf, s.EndTime)
	writeUint64(&buf, s.AssetID)
	writeAmount(&buf, s.TargetAmount)
	writeAmount(&buf, s.MinAmount)
	writeAmount(&buf, s.MaxAmount)
	if s.UseDefaultFees {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	writeUint32(&buf, s.ReferralFeeBps)
	writeUint32(&buf, s.CreatorFeeBps)
	buf.Write(secret)
	return hash.Hash256b(buf.Bytes())
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func writeAddress(buf *bytes.Buffer, addr address.Address) {
	if addr == nil {
		writeUint32(buf, 0)
		return
	}
	b := addr.Bytes()
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

func writeTime(buf *bytes.Buffer, t time.Time) {
	if t.IsZero() {
		writeUint64(buf, 0)
		return
	}
	writeUint64(buf, uint64(t.Unix()))
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeAmount(buf *bytes.Buffer, v *big.Int) {
	u := new(uint256.Int)
	if v != nil {
		u.SetFromBig(v)
	}
	b := u.Bytes32()
	buf.Write(b[:])
}

// started reports whether the campaign has started at now
func (c *Campaign) started(now time.Time) bool {
	return !now.Before(c.StartTime)
}

// ended reports whether the campaign has a deadline and it has passed
func (c *Campaign) ended(now time.Time) bool {
	return !c.EndTime.IsZero() && now.After(c.EndTime)
}

// belowMin reports whether the campaign has a minimum it has not yet reached
func (c *Campaign) belowMin() bool {
	return c.MinAmount.Sign() > 0 && c.TotalRaisedAmount.Cmp(c.MinAmount) < 0
}

// refundable reports whether donations to the campaign can be refunded: the
// deadline has passed and the minimum was missed
func (c *Campaign) refundable(now time.Time) bool {
	return c.ended(now) && c.belowMin()
}

// clone deep-copies the record so accessors never leak shared big.Int values
func (c *Campaign) clone() *Campaign {
	cc := *c
	cc.TargetAmount = cloneAmount(c.TargetAmount)
	cc.MinAmount = cloneAmount(c.MinAmount)
	cc.MaxAmount = cloneAmount(c.MaxAmount)
	cc.TotalRaisedAmount = cloneAmount(c.TotalRaisedAmount)
	cc.NetRaisedAmount = cloneAmount(c.NetRaisedAmount)
	cc.EscrowBalance = cloneAmount(c.EscrowBalance)
	return &cc
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
