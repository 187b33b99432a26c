// Command bequestd serves the bequest allocation API and listens for
// disbursement events.
//
// Usage:
//
//	bequestd serve --env .env
//	bequestd listen --env .env
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "bequestd",
	Short:         "Will allocation service",
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `bequestd runs the beneficiary allocation workflow behind an HTTP API,
records completed allocations on the will ledger and emails beneficiaries
when funds are disbursed.`,
}

func init() {
	rootCmd.PersistentFlags().StringSlice("env", nil, "dotenv files to load before reading the environment")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
