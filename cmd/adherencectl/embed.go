package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/afikmenashe/adherence-platform/internal/embed"
)

var (
	embedReq   embed.Request
	embedAttrs map[string]string
)

var embedURLCmd = &cobra.Command{
	Use:   "embed-url",
	Short: "Request a signed workbook embed URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		if embedReq.WorkbookURL == "" {
			return fmt.Errorf("--workbook is required")
		}

		req := embedReq
		if len(embedAttrs) > 0 {
			req.UserAttributes = make(map[string]any, len(embedAttrs))
			for k, v := range embedAttrs {
				req.UserAttributes[k] = v
			}
		}

		var result embed.Result
		if err := newAPIClient(apiURL).post(cmd.Context(), "/api/v1/embed", nil, req, &result); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, result.EmbedURL)
		fmt.Fprintf(cmd.ErrOrStderr(), "%s expires in %ds, refresh after %ds\n", gray("URL"), result.ExpiresIn, result.RefreshIn)
		return nil
	},
}

var embedStatusCmd = &cobra.Command{
	Use:   "embed-status",
	Short: "Show whether embed credentials are configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		var status embed.Status
		if err := newAPIClient(apiURL).get(cmd.Context(), "/api/v1/embed", nil, &status); err != nil {
			return err
		}
		if status.Status == "configured" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", green("●"), status.Message)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", red("●"), status.Message, status.Error)
		return nil
	},
}

func init() {
	f := embedURLCmd.Flags()
	f.StringVar(&embedReq.WorkbookURL, "workbook", "", "Absolute workbook URL")
	f.StringVar(&embedReq.UserEmail, "email", "", "Viewer email")
	f.StringVar(&embedReq.ExternalUserID, "user", "", "External user ID")
	f.StringVar(&embedReq.AccountType, "account-type", "", "viewer, creator or admin")
	f.StringSliceVar(&embedReq.TeamIDs, "team", nil, "Team ID (repeatable)")
	f.StringToStringVar(&embedAttrs, "attr", nil, "User attribute key=value (repeatable)")

	rootCmd.AddCommand(embedURLCmd)
	rootCmd.AddCommand(embedStatusCmd)
}
