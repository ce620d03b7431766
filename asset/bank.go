// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package asset

import (
	"math/big"
	"sync"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
)

// Errors
var (
	ErrNilRecipient  = errors.New("nil recipient address")
	ErrBadAmount     = errors.New("nil or negative transfer amount")
	ErrFrozenAccount = errors.New("recipient account is frozen")
	ErrHookRejected  = errors.New("recipient hook rejected the transfer")
)

// ReceiveHook runs recipient-controlled code when the recipient is credited.
// Returning an error fails the transfer. Tests use it to model a malicious
// recipient re-entering the ledger mid-operation.
type ReceiveHook func(recipient address.Address, amount *big.Int) error

// Bank is the in-memory reference Transferer. It credits recipient balances,
// fails deterministically for frozen accounts, and runs an optional receive
// hook per account before crediting.
type Bank struct {
	mu       sync.Mutex
	balances map[string]*big.Int
	frozen   map[string]bool
	hooks    map[string]ReceiveHook
}

// NewBank creates an empty in-memory bank
func NewBank() *Bank {
	return &Bank{
		balances: make(map[string]*big.Int),
		frozen:   make(map[string]bool),
		hooks:    make(map[string]ReceiveHook),
	}
}

// Transfer credits amount to the recipient's balance. It runs the recipient's
// receive hook, if any, before crediting; a hook error fails the transfer and
// leaves the balance untouched.
func (b *Bank) Transfer(recipient address.Address, amount *big.Int) error {
	if recipient == nil {
		return ErrNilRecipient
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrBadAmount
	}
	key := recipient.String()
	b.mu.Lock()
	frozen := b.frozen[key]
	hook := b.hooks[key]
	b.mu.Unlock()
	if frozen {
		return errors.Wrapf(ErrFrozenAccount, "recipient %s", key)
	}
	if hook != nil {
		if err := hook(recipient, amount); err != nil {
			return errors.Wrap(ErrHookRejected, err.Error())
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bal, ok := b.balances[key]
	if !ok {
		bal = big.NewInt(0)
		b.balances[key] = bal
	}
	bal.Add(bal, amount)
	return nil
}

// Balance returns the recipient's current balance
func (b *Bank) Balance(addr address.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	bal, ok := b.balances[addr.String()]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bal)
}

// Freeze makes every transfer to addr fail until Unfreeze
func (b *Bank) Freeze(addr address.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frozen[addr.String()] = true
}

// Unfreeze re-enables transfers to addr
func (b *Bank) Unfreeze(addr address.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.frozen, addr.String())
}

// SetReceiveHook installs recipient-controlled code for addr; a nil hook
// removes it
func (b *Bank) SetReceiveHook(addr address.Address, hook ReceiveHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if hook == nil {
		delete(b.hooks, addr.String())
		return
	}
	b.hooks[addr.String()] = hook
}
