// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package config defines the root configuration of a crowdfund node.
package config

import (
	"os"

	"github.com/pkg/errors"
	uconfig "go.uber.org/config"

	"github.com/crowdfundproject/crowdfund-core/db"
	"github.com/crowdfundproject/crowdfund-core/ledger"
	"github.com/crowdfundproject/crowdfund-core/pkg/log"
)

// IMPORTANT: to define a config, add a field or a new config type to the existing config types. In addition, provide
// the default value in Default var.

type (
	// Config is the root config struct, each top level field is a subsystem config
	Config struct {
		Ledger  ledger.Config    `json:"ledger" yaml:"ledger"`
		EventDB db.Config        `json:"eventDB" yaml:"eventDB"`
		Log     log.GlobalConfig `json:"log" yaml:"log"`
		SubLogs map[string]log.GlobalConfig `json:"subLogs" yaml:"subLogs"`
	}

	// Validate is the interface of validating the config
	Validate func(Config) error
)

// Default is the default config
var Default = Config{
	Ledger:  ledger.DefaultConfig,
	EventDB: db.DefaultConfig,
	SubLogs: make(map[string]log.GlobalConfig),
}

// Validates is the collection of default validation functions
var Validates = []Validate{
	ValidateLedger,
}

// New creates a config instance. It first loads the default configs. If a
// config path is not empty, it will read from the file and override the
// default configs. By default, it applies all validation functions.
func New(configPaths []string, validates ...Validate) (Config, error) {
	opts := make([]uconfig.YAMLOption, 0)
	opts = append(opts, uconfig.Static(Default))
	opts = append(opts, uconfig.Expand(os.LookupEnv))
	for _, path := range configPaths {
		if path != "" {
			opts = append(opts, uconfig.File(path))
		}
	}
	yaml, err := uconfig.NewYAML(opts...)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to init config")
	}

	var cfg Config
	if err := yaml.Get(uconfig.Root).Populate(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal YAML config to struct")
	}

	if len(validates) == 0 {
		validates = Validates
	}
	for _, validate := range validates {
		if err := validate(cfg); err != nil {
			return Config{}, errors.Wrap(err, "failed to validate config")
		}
	}
	return cfg, nil
}

// ValidateLedger validates the ledger configs
func ValidateLedger(cfg Config) error {
	l := cfg.Ledger
	if l.Admin == "" {
		return errors.New("admin address is not set")
	}
	if l.ProtocolFeeRecipient == "" {
		return errors.New("protocol fee recipient is not set")
	}
	for _, bps := range []uint32{l.ProtocolFeeBps, l.DefaultReferralFeeBps, l.DefaultCreatorFeeBps} {
		if bps > ledger.MaxAdminFeeBps {
			return errors.Errorf("fee %d bps exceeds the %d bps admin cap", bps, ledger.MaxAdminFeeBps)
		}
	}
	if uint64(l.ProtocolFeeBps)+uint64(l.DefaultReferralFeeBps)+uint64(l.DefaultCreatorFeeBps) > ledger.BpsDenominator {
		return errors.New("total fees exceed 10000 bps")
	}
	if l.TimelockPeriod <= 0 {
		return errors.New("non-positive timelock period")
	}
	return nil
}
