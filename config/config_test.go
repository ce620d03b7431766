// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestNewConfig(t *testing.T) {
	r := require.New(t)

	// defaults alone fail validation: the admin must be set explicitly
	_, err := New(nil)
	r.Error(err)

	path := writeConfigFile(t, `
ledger:
  admin: io1exampleadminaddr
  protocolFeeRecipient: io1examplefeeaddr
`)
	cfg, err := New([]string{path})
	r.NoError(err)
	r.Equal("io1exampleadminaddr", cfg.Ledger.Admin)
	r.Equal("io1examplefeeaddr", cfg.Ledger.ProtocolFeeRecipient)
	// unset fields keep their defaults
	r.Equal(uint32(250), cfg.Ledger.ProtocolFeeBps)
	r.Equal(48*time.Hour, cfg.Ledger.TimelockPeriod)
	r.Equal(uint8(3), cfg.EventDB.NumRetries)

	// file values override defaults
	path = writeConfigFile(t, `
ledger:
  admin: io1exampleadminaddr
  protocolFeeRecipient: io1examplefeeaddr
  protocolFeeBps: 500
eventDB:
  dbPath: /tmp/events.db
`)
	cfg, err = New([]string{path})
	r.NoError(err)
	r.Equal(uint32(500), cfg.Ledger.ProtocolFeeBps)
	r.Equal("/tmp/events.db", cfg.EventDB.DbPath)
}

func TestValidateLedger(t *testing.T) {
	r := require.New(t)

	valid := Default
	valid.Ledger.Admin = "io1exampleadminaddr"
	valid.Ledger.ProtocolFeeRecipient = "io1examplefeeaddr"
	r.NoError(ValidateLedger(valid))

	bad := valid
	bad.Ledger.Admin = ""
	r.Error(ValidateLedger(bad))

	bad = valid
	bad.Ledger.ProtocolFeeRecipient = ""
	r.Error(ValidateLedger(bad))

	bad = valid
	bad.Ledger.ProtocolFeeBps = 1_001
	r.Error(ValidateLedger(bad))

	bad = valid
	bad.Ledger.DefaultReferralFeeBps = 1_001
	r.Error(ValidateLedger(bad))

	bad = valid
	bad.Ledger.TimelockPeriod = 0
	r.Error(ValidateLedger(bad))
}
