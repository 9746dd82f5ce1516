package main

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/afikmenashe/adherence-platform/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rule catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		var catalog []*rules.Rule
		if err := newAPIClient(apiURL).get(cmd.Context(), "/api/v1/rules", nil, &catalog); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tSEVERITY\tOWNER\tSLA\tNAME\t")
		for _, r := range catalog {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%dh\t%s\t\n", r.Key, severityColor(r.Severity), r.Owner, r.SLAHours, r.Name)
		}
		return tw.Flush()
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the rule catalog for a client now",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireClient(); err != nil {
			return err
		}

		var result rules.EvaluationResult
		if err := newAPIClient(apiURL).post(cmd.Context(), "/api/v1/rules/evaluate", url.Values{"client_id": {clientID}}, nil, &result); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s matched %d, created %s, suppressed %d\n",
			cyan(result.ClientID), result.Matched, green(len(result.Created)), result.Suppressed)
		for _, n := range result.Created {
			fmt.Fprintf(out, "  %s [%s] %s\n", n.ID, severityColor(n.Severity), n.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(evaluateCmd)
}
