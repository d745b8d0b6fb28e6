package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the engine against a data directory and block until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, dir, err := loadEngine()
		if err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		fmt.Fprintf(cmd.OutOrStdout(), "ember serving %q from %q, ctrl-c to stop\n", dbName, dir)
		<-sigCh

		fmt.Fprintln(cmd.OutOrStdout(), "shutting down")
		return e.Stop()
	},
}
