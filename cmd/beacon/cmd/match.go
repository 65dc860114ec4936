package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/beacon/internal/rules"
)

var matchCmd = &cobra.Command{
	Use:   "match RULE SCHEMA",
	Short: "Check a schema against a rule",
	Args:  cobra.ExactArgs(2),
	RunE:  runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	rule, schema := args[0], args[1]
	out := cmd.OutOrStdout()

	_, validSchema := rules.GetSchemaParts(schema)
	fmt.Fprintf(out, "rule valid:   %t\n", rules.IsValidRule(rule))
	fmt.Fprintf(out, "schema valid: %t\n", validSchema)
	fmt.Fprintf(out, "matched:      %t\n", rules.MatchSchemaAgainstRule(rule, schema))
	return nil
}
