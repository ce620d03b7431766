// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package asset defines the value-transfer collaborator the ledger consumes
// and an in-memory reference implementation of it.
package asset

import (
	"math/big"

	"github.com/iotexproject/iotex-address/address"
)

// Transferer atomically moves value of the configured asset to a recipient.
// A transfer may invoke recipient-controlled code before it returns; the
// ledger treats every recipient as untrusted. Failure is reported as a
// non-nil error, distinct from success.
type Transferer interface {
	Transfer(recipient address.Address, amount *big.Int) error
}
