// Command crewpayctl is the operator tool for the escrow service. It runs
// the payout integrity audit against the database and mints tokens for
// service accounts.
package main

import (
	"fmt"
	"io"
	"os"

	"crewpay/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(openFromEnv, os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "crewpayctl",
		Short:         "Operator tool for the crewpay escrow service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()
		},
	}
	root.SetOut(out)
	root.AddCommand(
		newAuditCmd(open, out),
		newTokenCmd(out),
	)
	return root
}
