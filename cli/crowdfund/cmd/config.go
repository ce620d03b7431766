// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v2"

	"github.com/crowdfundproject/crowdfund-core/config"
	"github.com/crowdfundproject/crowdfund-core/pkg/log"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Prints the default configuration",
	Long:  `Prints the default configuration as YAML, a starting point for a deployment config file.`,
	Args:  cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		out, err := yaml.Marshal(config.Default)
		if err != nil {
			log.L().Error("Cannot marshal default config.", zap.Error(err))
			return
		}
		fmt.Print(string(out))
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
