package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emberql/ember/engine"
)

var execCmd = &cobra.Command{
	Use:   "exec <sql>",
	Short: "run one SQL statement against the database and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := loadEngine()
		if err != nil {
			return err
		}
		defer e.Stop()

		result, err := e.ExecuteSQL(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatResult(result))
		return nil
	},
}

// formatResult renders a QueryResult the way a one-shot invocation
// should: one line per row for a select, a row-count summary otherwise.
func formatResult(result *engine.QueryResult) string {
	if result.Kind == engine.SelectResult {
		if len(result.Records) == 0 {
			return "0 rows"
		}
		var b strings.Builder
		for i, rec := range result.Records {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(formatRow(rec.Values))
		}
		fmt.Fprintf(&b, "\n(%d row(s))", len(result.Records))
		return b.String()
	}

	if result.Message != "" {
		return result.Message
	}
	return fmt.Sprintf("%s: %d row(s) affected", result.Kind, result.AffectedRows)
}

func formatRow(values map[string]string) string {
	cols := make([]string, 0, len(values))
	for c := range values {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s=%s", c, values[c])
	}
	return strings.Join(parts, ", ")
}
