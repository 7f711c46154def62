// Command matchalert announces fixtures on Telegram when their alert time
// comes round.
//
// Usage:
//
//	matchalert serve
//	matchalert once --dry-run --at 2025-03-01T20:45
//	matchalert preflight
//	matchalert ledger list
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "matchalert",
		Short:        "Telegram alerts for upcoming fixtures",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(onceCmd())
	root.AddCommand(preflightCmd())
	root.AddCommand(ledgerCmd())
	return root
}
