// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crowdfundproject/crowdfund-core/config"
	"github.com/crowdfundproject/crowdfund-core/pkg/log"
)

var (
	_configPath  string
	_eventDBPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crowdfund [command] [flags]",
	Short: "Command-line interface for the crowdfund ledger",
	Long:  `crowdfund inspects a crowdfund ledger deployment: its configuration and its persisted audit events.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

// loadConfig reads the deployment config, initializes the loggers from it,
// and defaults the event database path to the configured one.
func loadConfig() error {
	if _configPath == "" {
		return nil
	}
	cfg, err := config.New([]string{_configPath})
	if err != nil {
		return err
	}
	if err := log.InitLoggers(cfg.Log, cfg.SubLogs); err != nil {
		return err
	}
	if _eventDBPath == "" {
		_eventDBPath = cfg.EventDB.DbPath
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&_configPath, "config", "C", "", "path of the deployment config file")
	rootCmd.PersistentFlags().StringVarP(&_eventDBPath, "event-db", "d", "", "path of the event database file")
}
