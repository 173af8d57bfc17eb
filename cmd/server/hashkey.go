package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"appointment-booking-api/internal/auth"
)

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key <key>",
	Short: "Print a bcrypt hash of an API key",
	Long: `Print a bcrypt hash suitable for security.api_key_hash (or API_KEY_HASH),
so the plain key never has to be stored in configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := auth.HashKey(args[0])
		if err != nil {
			return fmt.Errorf("hash: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), h)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashKeyCmd)
}
