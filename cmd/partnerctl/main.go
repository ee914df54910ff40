// cmd/partnerctl/main.go
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "partnerctl",
	Short: "Operate a PartnerLink backend",
	Long: `Operational commands for the PartnerLink backend.

Available subcommands:
  migrate - Create or update the database schema
  seed    - Insert demo accounts and products
  token   - Mint a development access token`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("log-level")
		level, err := logrus.ParseLevel(raw)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", raw, err)
		}
		logrus.SetLevel(level)
		return nil
	}

	rootCmd.AddCommand(migrateCmd, seedCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
