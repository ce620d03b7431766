// Copyright (c) 2024 CrowdFund Project
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crowdfundproject/crowdfund-core/db"
	"github.com/crowdfundproject/crowdfund-core/eventdb"
	"github.com/crowdfundproject/crowdfund-core/ledger"
	"github.com/crowdfundproject/crowdfund-core/pkg/log"
)

var _campaignID uint64

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Dumps the persisted audit events",
	Long:  `Dumps the persisted audit events in sequence order, optionally filtered by campaign id.`,
	Args:  cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		for _, line := range events() {
			fmt.Println(line)
		}
	},
}

func events() []string {
	if _eventDBPath == "" {
		log.L().Error("The --event-db flag is required.")
		return nil
	}
	store := eventdb.NewStore(db.NewBoltDB(db.Config{DbPath: _eventDBPath}))
	ctx := context.Background()
	if err := store.Start(ctx); err != nil {
		log.L().Error("Cannot open event database.", zap.Error(err))
		return nil
	}
	defer func() {
		if err := store.Stop(ctx); err != nil {
			log.L().Error("Cannot close event database.", zap.Error(err))
		}
	}()

	var (
		evts []ledger.Event
		err  error
	)
	if _campaignID != 0 {
		evts, err = store.EventsByCampaign(_campaignID)
	} else {
		evts, err = store.Events()
	}
	if err != nil {
		log.L().Error("Cannot read events.", zap.Error(err))
		return nil
	}
	lines := make([]string, 0, len(evts))
	for _, e := range evts {
		out, err := json.Marshal(&e)
		if err != nil {
			log.L().Error("Cannot marshal event.", zap.Error(err))
			continue
		}
		lines = append(lines, string(out))
	}
	return lines
}

func init() {
	eventsCmd.Flags().Uint64VarP(&_campaignID, "campaign", "c", 0, "only events of this campaign id")
	rootCmd.AddCommand(eventsCmd)
}
