// Command ember is the minimal CLI boundary around the engine facade:
// serve, exec, backup, and restore. It is not the interactive shell
// described alongside the original system — just enough surface to
// start the engine, run a statement, and move data in and out of it.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
