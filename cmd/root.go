// Package cmd holds the gobmc CLI's cobra commands, grounded on
// netrixframework-netrix's cmd/main.go RootCmd pattern: one exported
// constructor returning the root *cobra.Command, subcommands added as
// their own files.
package cmd

import "github.com/spf13/cobra"

func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gobmc",
		Short: "Bounded model checker for Go programs",
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.AddCommand(checkCmd())
	return cmd
}
