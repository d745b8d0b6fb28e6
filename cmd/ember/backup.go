package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup <path>",
	Short: "write a full textual backup of the database to path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := loadEngine()
		if err != nil {
			return err
		}
		defer e.Stop()

		if err := e.Backup(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "backed up %q to %s\n", dbName, args[0])
		return nil
	},
}
