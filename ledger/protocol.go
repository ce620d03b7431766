// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package ledger implements a fundraising-campaign ledger: commit-reveal
// campaign creation, fee-split donations, escrow with batched settlement once
// a minimum is reached, pull-based refunds when it is missed, and timelocked
// fee administration. State transitions that move value are guarded against
// reentrancy and ordered checks-effects-interactions.
package ledger

import (
	"math/big"
	"time"

	"github.com/facebookgo/clock"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/crowdfundproject/crowdfund-core/asset"
	"github.com/crowdfundproject/crowdfund-core/pkg/log"
)

var _ledgerMtc = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "crowdfund_ledger_operation_metrics",
	Help: "ledger operation metrics.",
}, []string{"op", "status"})

func init() {
	prometheus.MustRegister(_ledgerMtc)
}

// Config carries the genesis parameters of a ledger instance
type Config struct {
	// Admin is the address allowed to run admin operations
	Admin string `json:"admin" yaml:"admin"`
	// ProtocolFeeBps is the initial protocol fee in basis points
	ProtocolFeeBps uint32 `json:"protocolFeeBps" yaml:"protocolFeeBps"`
	// ProtocolFeeRecipient receives the protocol fee of every donation
	ProtocolFeeRecipient string `json:"protocolFeeRecipient" yaml:"protocolFeeRecipient"`
	// DefaultReferralFeeBps applies to campaigns revealed with default fees
	DefaultReferralFeeBps uint32 `json:"defaultReferralFeeBps" yaml:"defaultReferralFeeBps"`
	// DefaultCreatorFeeBps applies to campaigns revealed with default fees
	DefaultCreatorFeeBps uint32 `json:"defaultCreatorFeeBps" yaml:"defaultCreatorFeeBps"`
	// TimelockPeriod is the mandatory delay between proposing and executing
	// a protocol fee change
	TimelockPeriod time.Duration `json:"timelockPeriod" yaml:"timelockPeriod"`
	// MaxEndTimeExtension caps how far past the stored end time an update
	// may extend a campaign
	MaxEndTimeExtension time.Duration `json:"maxEndTimeExtension" yaml:"maxEndTimeExtension"`
	// DefaultBatchLimit is the fee-transfer budget used when a settlement
	// call passes 0
	DefaultBatchLimit uint32 `json:"defaultBatchLimit" yaml:"defaultBatchLimit"`
}

// DefaultConfig is the default ledger config
var DefaultConfig = Config{
	ProtocolFeeBps:        250,
	DefaultReferralFeeBps: 0,
	DefaultCreatorFeeBps:  0,
	TimelockPeriod:        48 * time.Hour,
	MaxEndTimeExtension:   7 * 24 * time.Hour,
	DefaultBatchLimit:     64,
}

type feeParams struct {
	protocolFeeBps        uint32
	protocolFeeRecipient  address.Address
	defaultReferralFeeBps uint32
	defaultCreatorFeeBps  uint32
}

type proposalKey struct {
	op     string
	feeBps uint32
}

// Ledger is the fundraising-campaign ledger. All state is exclusively owned
// by the ledger and mutated only through its operations; each mutating
// operation runs under a non-reentrant guard.
type Ledger struct {
	cfg   Config
	guard *atomic.Bool
	clk   clock.Clock
	bank  asset.Transferer
	sink  EventSink

	admin  address.Address
	params feeParams
	paused bool
	// proposals is keyed by (operation, proposed value); single use
	proposals map[proposalKey]time.Time

	nextCampaignID uint64
	nextDonationID uint64
	campaigns      map[uint64]*Campaign
	donations      map[uint64]*Donation

	campaignsByOwner     map[string][]uint64
	campaignsByRecipient map[string][]uint64
	donationsByCampaign  map[uint64][]uint64
	donationsByDonor     map[string][]uint64
}

// Option sets an optional dependency of the ledger
type Option func(*Ledger)

// WithClock overrides the wall clock, mainly for tests
func WithClock(clk clock.Clock) Option {
	return func(l *Ledger) { l.clk = clk }
}

// WithEventSink sets the audit sink for mutating operations
func WithEventSink(sink EventSink) Option {
	return func(l *Ledger) { l.sink = sink }
}

// New creates a ledger instance on top of the given transfer collaborator
func New(cfg Config, bank asset.Transferer, opts ...Option) (*Ledger, error) {
	if bank == nil {
		return nil, errors.New("nil transferer")
	}
	admin, err := address.FromString(cfg.Admin)
	if err != nil {
		return nil, errors.Wrap(err, "invalid admin address")
	}
	feeRecipient, err := address.FromString(cfg.ProtocolFeeRecipient)
	if err != nil {
		return nil, errors.Wrap(err, "invalid protocol fee recipient")
	}
	if err := checkTotalFees(cfg.ProtocolFeeBps, cfg.DefaultReferralFeeBps, cfg.DefaultCreatorFeeBps); err != nil {
		return nil, err
	}
	if cfg.TimelockPeriod <= 0 {
		return nil, errors.New("non-positive timelock period")
	}
	if cfg.MaxEndTimeExtension <= 0 {
		cfg.MaxEndTimeExtension = DefaultConfig.MaxEndTimeExtension
	}
	if cfg.DefaultBatchLimit == 0 {
		cfg.DefaultBatchLimit = DefaultConfig.DefaultBatchLimit
	}
	l := &Ledger{
		cfg:   cfg,
		guard: atomic.NewBool(false),
		clk:   clock.New(),
		bank:  bank,
		sink:  nopSink{},
		admin: admin,
		params: feeParams{
			protocolFeeBps:        cfg.ProtocolFeeBps,
			protocolFeeRecipient:  feeRecipient,
			defaultReferralFeeBps: cfg.DefaultReferralFeeBps,
			defaultCreatorFeeBps:  cfg.DefaultCreatorFeeBps,
		},
		proposals:            make(map[proposalKey]time.Time),
		nextCampaignID:       1,
		nextDonationID:       1,
		campaigns:            make(map[uint64]*Campaign),
		donations:            make(map[uint64]*Donation),
		campaignsByOwner:     make(map[string][]uint64),
		campaignsByRecipient: make(map[string][]uint64),
		donationsByCampaign:  make(map[uint64][]uint64),
		donationsByDonor:     make(map[string][]uint64),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// enter acquires the non-reentrant guard. A call arriving while the guard is
// held, whether a reentrant callback from a transfer target or a racing
// goroutine, is rejected instead of observing half-updated state.
func (l *Ledger) enter() error {
	if !l.guard.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (l *Ledger) exit() { l.guard.Store(false) }

// transfer moves value through the collaborator. Zero transfers are skipped.
func (l *Ledger) transfer(recipient address.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if err := l.bank.Transfer(recipient, amount); err != nil {
		log.L().Warn("Transfer failed.",
			zap.String("recipient", addrStr(recipient)),
			zap.String("amount", amountStr(amount)),
			zap.Error(err))
		return errors.Wrapf(ErrTransfer, "to %s: %v", addrStr(recipient), err)
	}
	return nil
}

func (l *Ledger) count(op string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	_ledgerMtc.WithLabelValues(op, status).Inc()
}

// Campaign returns a copy of the campaign record
func (l *Ledger) Campaign(id uint64) (*Campaign, error) {
	c, ok := l.campaigns[id]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	return c.clone(), nil
}

// Donation returns a copy of the donation record
func (l *Ledger) Donation(id uint64) (*Donation, error) {
	d, ok := l.donations[id]
	if !ok {
		return nil, ErrDonationNotFound
	}
	return d.clone(), nil
}

// CampaignsByOwner returns the ids of campaigns owned by addr
func (l *Ledger) CampaignsByOwner(addr address.Address) []uint64 {
	return cloneIDs(l.campaignsByOwner[addr.String()])
}

// CampaignsByRecipient returns the ids of campaigns paying out to addr
func (l *Ledger) CampaignsByRecipient(addr address.Address) []uint64 {
	return cloneIDs(l.campaignsByRecipient[addr.String()])
}

// DonationsByCampaign returns the ids of the campaign's donations in
// arrival order
func (l *Ledger) DonationsByCampaign(campaignID uint64) []uint64 {
	return cloneIDs(l.donationsByCampaign[campaignID])
}

// DonationsByDonor returns the ids of the donor's donations in arrival order
func (l *Ledger) DonationsByDonor(addr address.Address) []uint64 {
	return cloneIDs(l.donationsByDonor[addr.String()])
}

// Paused reports whether new commitments and donations are gated off
func (l *Ledger) Paused() bool { return l.paused }

// ProtocolFeeBps returns the current protocol fee rate
func (l *Ledger) ProtocolFeeBps() uint32 { return l.params.protocolFeeBps }

// ProtocolFeeRecipient returns the current protocol fee recipient
func (l *Ledger) ProtocolFeeRecipient() address.Address {
	return l.params.protocolFeeRecipient
}

// DefaultReferralFeeBps returns the default referral fee rate
func (l *Ledger) DefaultReferralFeeBps() uint32 { return l.params.defaultReferralFeeBps }

// DefaultCreatorFeeBps returns the default creator fee rate
func (l *Ledger) DefaultCreatorFeeBps() uint32 { return l.params.defaultCreatorFeeBps }

func cloneIDs(ids []uint64) []uint64 {
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

func (l *Ledger) campaign(id uint64) (*Campaign, error) {
	c, ok := l.campaigns[id]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	return c, nil
}

func (l *Ledger) revealedCampaign(id uint64) (*Campaign, error) {
	c, err := l.campaign(id)
	if err != nil {
		return nil, err
	}
	if c.State != CampaignRevealed {
		return nil, ErrNotRevealed
	}
	return c, nil
}
