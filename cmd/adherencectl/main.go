// Command adherencectl is an operator CLI for the adherence API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/afikmenashe/adherence-platform/pkg/shared"
)

var (
	apiURL   string
	clientID string
)

var rootCmd = &cobra.Command{
	Use:           "adherencectl",
	Short:         "Operate the adherence metrics and alert rules API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", shared.GetEnvOrDefault("ADHERENCE_API_URL", "http://localhost:8080"), "Base URL of adherence-api")
	rootCmd.PersistentFlags().StringVar(&clientID, "client", shared.GetEnvOrDefault("ADHERENCE_CLIENT_ID", ""), "Client (tenant) ID")
}

// requireClient fails when a command needs --client and none is set.
func requireClient() error {
	if clientID == "" {
		return fmt.Errorf("--client is required (or set ADHERENCE_CLIENT_ID)")
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
