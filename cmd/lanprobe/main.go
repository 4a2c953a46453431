// Lanprobe inventories devices on the local network segment.
//
// It broadcasts a one-byte UDP probe and prints a table of every device
// that answers before the receive timeout expires.
//
// Usage:
//
//	lanprobe [flags]
//
// See 'lanprobe --help' for available flags.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/lanprobe/internal/logging"
	"github.com/muurk/lanprobe/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lanprobe",
	Short: "Discover devices with a UDP broadcast probe",
	Long: `Broadcasts a discovery probe on the local network and lists every
device that answers within the timeout.

Each reply becomes one row: device name, MAC ID, the address the reply came
from, the address currently using the device, and its status.`,
	Example: `  # Probe the default port (30303) and wait 1 second per reply
  lanprobe

  # Longer window on a custom port
  lanprobe --port 30304 --timeout 3

  # Directed broadcast, JSON lines for scripting
  lanprobe --target 192.168.1.255 --format json

  # Live view
  lanprobe --tui`,
	Version:       version.Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	Args:          cobra.NoArgs,
	RunE:          runDiscover,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lanprobe %s\n", version.Full())
	},
}
