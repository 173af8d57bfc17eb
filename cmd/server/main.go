// Command server runs the appointment booking API.
//
// Usage:
//
//	server serve [-c config.yaml]   # start the HTTP, websocket and grpc health servers
//	server migrate [-c config.yaml] # apply schema migrations and exit
//	server hash-key <key>           # print a bcrypt hash for security.api_key_hash
//	server version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// set via -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Appointment booking API with live websocket notifications",
	Long: `Books and cancels appointments for registered users and pushes a
BOOKED or CANCELLED event to every connected websocket subscriber.

Configuration comes from defaults, an optional YAML file (-c), a .env file
in the working directory, and the environment, in increasing precedence.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "appointment-booking-api %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
