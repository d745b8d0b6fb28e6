package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <path>",
	Short: "replay a backup file's statements into the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := loadEngine()
		if err != nil {
			return err
		}
		defer e.Stop()

		if err := e.Restore(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "restored %q from %s\n", dbName, args[0])
		return nil
	},
}
