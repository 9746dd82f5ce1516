package main

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/afikmenashe/adherence-platform/internal/handlers"
)

var (
	groupBy   string
	drugClass string
)

var cohortsCmd = &cobra.Command{
	Use:   "cohorts",
	Short: "Show cohort adherence averages",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireClient(); err != nil {
			return err
		}
		q := url.Values{"client_id": {clientID}}
		if groupBy != "" {
			q.Set("group_by", groupBy)
		}

		var resp handlers.CohortsResponse
		if err := newAPIClient(apiURL).get(cmd.Context(), "/api/v1/adherence/cohorts", q, &resp); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "COHORT\tRECORDS\tPDC-90\tPDC-180\tMPR-90\tTIER\t")
		for _, c := range resp.Cohorts {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t\n",
				c.Key, c.Count, pct(c.AvgPDC90), pct(c.AvgPDC180), pct(c.AvgMPR90), tierColor(c.Tier))
		}
		return tw.Flush()
	},
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show the client-wide adherence overview",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireClient(); err != nil {
			return err
		}

		var resp handlers.OverviewResponse
		if err := newAPIClient(apiURL).get(cmd.Context(), "/api/v1/adherence/overview", url.Values{"client_id": {clientID}}, &resp); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", cyan("Adherence overview for "+clientID))
		fmt.Fprintf(out, "  Records:  %d\n", resp.Overall.Count)
		fmt.Fprintf(out, "  PDC-90:   %s (%s)\n", pct(resp.Overall.AvgPDC90), tierColor(resp.Overall.Tier))
		fmt.Fprintf(out, "  PDC-180:  %s\n", pct(resp.Overall.AvgPDC180))
		fmt.Fprintf(out, "  MPR-90:   %s\n", pct(resp.Overall.AvgMPR90))
		fmt.Fprintf(out, "  Healthy %s / At risk %s / Critical %s / Unknown %d\n",
			green(resp.TierCounts.Healthy), yellow(resp.TierCounts.AtRisk), red(resp.TierCounts.Critical), resp.TierCounts.Unknown)
		return nil
	},
}

var distributionCmd = &cobra.Command{
	Use:   "distribution",
	Short: "Show the PDC-90 distribution",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireClient(); err != nil {
			return err
		}
		q := url.Values{"client_id": {clientID}}
		if drugClass != "" {
			q.Set("drug_class", drugClass)
		}

		var resp handlers.DistributionResponse
		if err := newAPIClient(apiURL).get(cmd.Context(), "/api/v1/adherence/distribution", q, &resp); err != nil {
			return err
		}

		peak := 0
		for _, b := range resp.Buckets {
			peak = max(peak, b.Count)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, b := range resp.Buckets {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", b.Range, b.Count, bar(b.Count, peak, 40))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d records, %d without PDC-90\n", resp.Total, resp.Missing)
		return nil
	},
}

func init() {
	cohortsCmd.Flags().StringVar(&groupBy, "group-by", "", "Group by drug_class, member or month")
	distributionCmd.Flags().StringVar(&drugClass, "drug-class", "", "Only include one drug class")

	rootCmd.AddCommand(cohortsCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(distributionCmd)
}
