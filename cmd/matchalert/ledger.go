package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/matchalert/internal/config"
	"github.com/hamed0406/matchalert/internal/domain"
)

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or extend the sent-alerts ledger",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every acknowledged match id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			store, closeStore, err := openLedger(ctx, cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer closeStore()
			set, err := store.Load(ctx)
			if err != nil {
				return err
			}
			for _, id := range set.IDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	})

	var asString bool
	ack := &cobra.Command{
		Use:   "ack <match_id>...",
		Short: "Mark match ids as sent so they are never alerted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			store, closeStore, err := openLedger(ctx, cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer closeStore()
			set, err := store.Load(ctx)
			if err != nil {
				return err
			}
			for _, a := range args {
				id, err := parseMatchID(a, asString)
				if err != nil {
					return err
				}
				set.Add(id)
			}
			return store.Save(ctx, set)
		},
	}
	ack.Flags().BoolVar(&asString, "string", false, "treat ids as strings even when they look numeric")
	cmd.AddCommand(ack)
	return cmd
}

// parseMatchID reads an id typed on the command line. Integers become numeric
// ids unless asString is set.
func parseMatchID(s string, asString bool) (domain.MatchID, error) {
	if s == "" {
		return domain.MatchID{}, fmt.Errorf("empty match id")
	}
	if !asString {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return domain.NumericID(n), nil
		}
	}
	return domain.StringID(s), nil
}
