// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package asset

import (
	"math/big"
	"testing"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func testAddr(seed string) address.Address {
	h := hash.Hash160b([]byte(seed))
	addr, err := address.FromBytes(h[:])
	if err != nil {
		panic(err)
	}
	return addr
}

func TestBankTransfer(t *testing.T) {
	r := require.New(t)
	b := NewBank()
	alice := testAddr("alice")

	r.Zero(b.Balance(alice).Sign())
	r.NoError(b.Transfer(alice, big.NewInt(100)))
	r.NoError(b.Transfer(alice, big.NewInt(50)))
	r.Zero(b.Balance(alice).Cmp(big.NewInt(150)))

	// zero is a valid no-op credit
	r.NoError(b.Transfer(alice, big.NewInt(0)))
	r.Zero(b.Balance(alice).Cmp(big.NewInt(150)))

	r.ErrorIs(b.Transfer(nil, big.NewInt(1)), ErrNilRecipient)
	r.ErrorIs(b.Transfer(alice, nil), ErrBadAmount)
	r.ErrorIs(b.Transfer(alice, big.NewInt(-1)), ErrBadAmount)

	// the returned balance is a copy
	b.Balance(alice).SetInt64(0)
	r.Zero(b.Balance(alice).Cmp(big.NewInt(150)))
}

func TestBankFreeze(t *testing.T) {
	r := require.New(t)
	b := NewBank()
	alice := testAddr("alice")

	b.Freeze(alice)
	r.ErrorIs(b.Transfer(alice, big.NewInt(1)), ErrFrozenAccount)
	r.Zero(b.Balance(alice).Sign())

	b.Unfreeze(alice)
	r.NoError(b.Transfer(alice, big.NewInt(1)))
	r.Zero(b.Balance(alice).Cmp(big.NewInt(1)))
}

func TestBankReceiveHook(t *testing.T) {
	r := require.New(t)
	b := NewBank()
	alice := testAddr("alice")

	// the hook runs before the balance is credited
	var seen *big.Int
	b.SetReceiveHook(alice, func(_ address.Address, amount *big.Int) error {
		seen = amount
		r.Zero(b.Balance(alice).Sign())
		return nil
	})
	r.NoError(b.Transfer(alice, big.NewInt(7)))
	r.Zero(seen.Cmp(big.NewInt(7)))
	r.Zero(b.Balance(alice).Cmp(big.NewInt(7)))

	// a rejecting hook fails the transfer and leaves the balance untouched
	b.SetReceiveHook(alice, func(address.Address, *big.Int) error {
		return errors.New("not today")
	})
	r.ErrorIs(b.Transfer(alice, big.NewInt(1)), ErrHookRejected)
	r.Zero(b.Balance(alice).Cmp(big.NewInt(7)))

	b.SetReceiveHook(alice, nil)
	r.NoError(b.Transfer(alice, big.NewInt(1)))
	r.Zero(b.Balance(alice).Cmp(big.NewInt(8)))
}
