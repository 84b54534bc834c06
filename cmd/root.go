package cmd

import (
	"context"
	"fmt"

	"github.com/nicholasgasior/ssopipe/internal/cli"
	"github.com/spf13/cobra"
)

// Ensure silentExitError satisfies the error interface (compile-time check).
var _ error = silentExitError{}

// NewRootCommand creates and returns the root cobra command with all global
// persistent flags registered. Subcommands are attached here.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ssopipe",
		Short:         "Reconcile AWS IAM Identity Center permission sets and assignments",
		Long:          "ssopipe reconciles declarative permission set and assignment templates against a live AWS IAM Identity Center instance.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := cli.NewCLIContext(cmd)
			ctx := cli.WithContext(context.Background(), cliCtx)

			// Initialize AWS clients for commands that need them.
			// Local-only commands (version, config, completion, help) skip
			// AWS initialization entirely.
			if commandNeedsAWS(cmd) {
				clients, err := initAWSClients(ctx)
				if err != nil {
					friendlyMsg := fmt.Sprintf("initialize AWS: %v", err)
					if isCredentialError(err) {
						friendlyMsg = fmt.Sprintf("AWS credentials: %v (try `aws sso login` or pass --profile)", err)
					}
					// In JSON mode, write structured error to stdout so machine
					// consumers get valid JSON instead of plaintext on stderr.
					// Use silentExitError so main.go doesn't double-print.
					if cliCtx.JSON {
						cmd.SetContext(ctx)
						fmt.Fprintf(cmd.OutOrStdout(), "{\"error\":%q}\n", friendlyMsg)
						return silentExitError{}
					}
					return fmt.Errorf("%s", friendlyMsg)
				}
				ctx = contextWithAWSClients(ctx, clients)
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	rootCmd.SetVersionTemplate("ssopipe version {{.Version}}\n")

	// Global flags.
	rootCmd.PersistentFlags().Bool("verbose", false, "Show progress steps")
	rootCmd.PersistentFlags().Bool("debug", false, "Show AWS SDK details")
	rootCmd.PersistentFlags().Bool("json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().Bool("yes", false, "Skip confirmation on apply operations")
	rootCmd.PersistentFlags().String("profile", "", "AWS profile name (overrides AWS_PROFILE)")
	rootCmd.PersistentFlags().Int("concurrency", 0, "Bounded worker count for live-state indexing (overrides config)")

	// Register subcommands
	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newPermissionSetsCommand())
	rootCmd.AddCommand(newAssignmentsCommand())
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}

// Execute creates the root command and runs it. Called from main.
func Execute() error {
	return NewRootCommand().Execute()
}
