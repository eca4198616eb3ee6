/*
main.go - Administrative command line

PURPOSE:
  Runs timesheet operations directly against the configured database,
  without the HTTP server: listing users, printing a monthly report,
  exporting a spreadsheet and running the open-day audit once.

COMMANDS:
  horacerta users
  horacerta report --user ID [--month YYYY-MM]
  horacerta export --user ID [--from YYYY-MM-DD --to YYYY-MM-DD] [-o FILE]
  horacerta audit [--lookback DAYS]

CONFIGURATION:
  Same as the server: --config file, then HORACERTA_* environment
  variables. Logs go to stderr; command output goes to stdout.

SEE ALSO:
  - cmd/server/main.go: HTTP server
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "horacerta",
		Short:         "HoraCerta time clock administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path of the YAML config file")

	env := func() (*environment, error) { return openEnvironment(configPath) }
	root.AddCommand(
		newUsersCmd(env),
		newReportCmd(env),
		newExportCmd(env),
		newAuditCmd(env),
	)
	return root
}
