package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicholasgasior/ssopipe/internal/templates"
	"github.com/nicholasgasior/ssopipe/internal/validate"
)

func newValidateCommand() *cobra.Command {
	var psFolder, assignmentsFolder string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate Permission Set and Assignment templates",
		Long:  "Run the full validation pass (unique names, unique SIDs, custom policy findings, managed policy existence) without touching the live SSO instance.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if psFolder == "" || assignmentsFolder == "" {
				_ = cmd.Usage()
				return fmt.Errorf("--ps-folder and --assignments-folder are both required")
			}

			ctx := cmd.Context()
			clients := awsClientsFromContext(ctx)
			logger := newLogger(cmd)

			logger.Info("# Starting ssopipe template validation #")

			permissionSets, err := templates.LoadPermissionSets(psFolder)
			if err != nil {
				return err
			}
			assignments, err := templates.LoadAssignments(assignmentsFolder)
			if err != nil {
				return err
			}

			validator := validate.New(clients.analyzerClient, clients.iamClient, logger)
			if err := validator.Run(ctx, permissionSets, assignments); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d permission sets, %d assignments: valid\n",
				len(permissionSets), len(assignments))
			return err
		},
	}

	cmd.Flags().StringVar(&psFolder, "ps-folder", "", "Path to the Permission Set template folder (required)")
	cmd.Flags().StringVar(&assignmentsFolder, "assignments-folder", "", "Path to the Assignment template folder (required)")

	return cmd
}
