package main

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/afikmenashe/adherence-platform/internal/notification"
)

var notificationStatus string

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"n"},
	Short:   "List and triage notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a client's notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireClient(); err != nil {
			return err
		}
		q := url.Values{"client_id": {clientID}}
		if notificationStatus != "" {
			q.Set("status", notificationStatus)
		}

		var views []notification.View
		if err := newAPIClient(apiURL).get(cmd.Context(), "/api/v1/notifications", q, &views); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(views) == 0 {
			fmt.Fprintln(out, gray("No notifications"))
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tRULE\tENTITY\tSEVERITY\tSTATUS\tSLA DEADLINE\t")
		for _, v := range views {
			deadline := v.SLADeadline.Format("2006-01-02 15:04")
			if v.Breached {
				deadline = red(deadline + " BREACHED")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
				v.ID, v.RuleKey, v.EntityRef, severityColor(v.Severity), v.Status, deadline)
		}
		return tw.Flush()
	},
}

var notificationsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show notification counts for a client",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireClient(); err != nil {
			return err
		}

		var s notification.Summary
		if err := newAPIClient(apiURL).get(cmd.Context(), "/api/v1/notifications/summary", url.Values{"client_id": {clientID}}, &s); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", cyan("Notifications for "+clientID))
		fmt.Fprintf(out, "  Open:      %d\n", s.Open)
		fmt.Fprintf(out, "  Triaged:   %d\n", s.Triaged)
		fmt.Fprintf(out, "  Resolved:  %d\n", s.Resolved)
		breached := fmt.Sprintf("%d", s.Breached)
		if s.Breached > 0 {
			breached = red(breached)
		}
		fmt.Fprintf(out, "  Breached:  %s\n", breached)
		fmt.Fprintf(out, "  High/critical open: %d\n", s.HighSeverityOpen)
		return nil
	},
}

func transitionCmd(use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " NOTIFICATION_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v notification.View
			q := url.Values{"notification_id": {args[0]}}
			if err := newAPIClient(apiURL).post(cmd.Context(), path, q, nil, &v); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now %s\n", green("✓"), v.ID, v.Status)
			return nil
		},
	}
}

func init() {
	notificationsListCmd.Flags().StringVar(&notificationStatus, "status", "", "Filter by status (OPEN, TRIAGED, RESOLVED)")

	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsSummaryCmd)
	notificationsCmd.AddCommand(transitionCmd("triage", "Acknowledge an open notification", "/api/v1/notifications/triage"))
	notificationsCmd.AddCommand(transitionCmd("resolve", "Resolve a notification", "/api/v1/notifications/resolve"))
	rootCmd.AddCommand(notificationsCmd)
}
