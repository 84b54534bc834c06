package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/nicholasgasior/ssopipe/internal/assignment"
	"github.com/nicholasgasior/ssopipe/internal/awssvc"
	"github.com/nicholasgasior/ssopipe/internal/cli"
	"github.com/nicholasgasior/ssopipe/internal/liveindex"
	"github.com/nicholasgasior/ssopipe/internal/logging"
	"github.com/nicholasgasior/ssopipe/internal/principal"
	"github.com/nicholasgasior/ssopipe/internal/target"
	"github.com/nicholasgasior/ssopipe/internal/templates"
	"github.com/nicholasgasior/ssopipe/internal/validate"
)

func newAssignmentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assignments",
		Short: "Manage Assignment expansion",
		Long:  "Expand the Assignment template repository into resolved (principal, account, permission set) records.",
	}
	cmd.AddCommand(newAssignmentsApplyCommand())
	return cmd
}

func newAssignmentsApplyCommand() *cobra.Command {
	var orgRole, mgmtAccount string

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Expand Assignment templates and write assignments.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			clients := awsClientsFromContext(ctx)
			cliCtx := cli.FromCommand(cmd)
			logger := newLogger(cmd)

			logger.Info("# Starting ssopipe Assignment expansion #")

			cfg := clients.pipelineConfig
			permissionSets, err := templates.LoadPermissionSets(cfg.PSFolder)
			if err != nil {
				return err
			}
			assignments, err := templates.LoadAssignments(cfg.AssignmentsFolder)
			if err != nil {
				return err
			}

			validator := validate.New(clients.analyzerClient, clients.iamClient, logger)
			if err := validator.Run(ctx, permissionSets, assignments); err != nil {
				return fmt.Errorf("validate templates: %w", err)
			}

			idx := liveindex.New(clients.ssoadminClient, clients.ssoadminClient, clients.ssoadminClient, clients.ssoadminClient, cfg.Concurrency)
			instanceARN, identityStoreID, err := idx.Instance(ctx)
			if err != nil {
				return err
			}
			liveIndex, err := idx.Build(ctx, instanceARN)
			if err != nil {
				return err
			}

			orgClient, err := organizationsClientForRole(ctx, orgRole)
			if err != nil {
				return fmt.Errorf("assume organization role: %w", err)
			}

			targetResolver := target.New(orgClient, orgClient, orgClient)
			principalResolver := principal.New(clients.identitystoreClient, clients.identitystoreClient, identityStoreID)
			expander := assignment.New(principalResolver, targetResolver, liveIndex, mgmtAccount, logger)

			resolved, err := expander.Expand(ctx, assignments)
			if err != nil {
				return err
			}

			if err := assignment.WriteFile("assignments.json", resolved); err != nil {
				return err
			}

			auditor, err := logging.NewAuditLogger(filepath.Join(cfg.LogDir, "audit.log"))
			if err != nil {
				return err
			}
			defer auditor.Close()
			_ = auditor.LogCommand("assignments apply", cfg.AssignmentsFolder, clients.ownerARN)

			logger.Info("Assignment expansion complete", "count", len(resolved))

			if cliCtx != nil && cliCtx.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resolved)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d resolved assignments to assignments.json\n", len(resolved))
			return err
		},
	}

	applyCmd.Flags().StringVar(&orgRole, "org-role", "", "Role ARN to assume in the organization management account")
	applyCmd.Flags().StringVar(&mgmtAccount, "mgmt-account", "", "Management account ID to exclude from resolved targets")

	return applyCmd
}

// organizationsClientForRole builds an organizations.Client. When orgRole is
// set, it assumes that role in the organization management account via STS
// and scopes the client to the resulting credentials; otherwise it falls
// back to the ambient default credential chain (§4.6, §6 --org-role).
func organizationsClientForRole(ctx context.Context, orgRole string) (*organizations.Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	retryer := func() aws.RetryerV2 { return awssvc.NewRetryer() }

	if orgRole == "" {
		return organizations.NewFromConfig(cfg, func(o *organizations.Options) {
			o.Retryer = retryer()
		}), nil
	}

	stsClient := sts.NewFromConfig(cfg)
	creds := stscreds.NewAssumeRoleProvider(stsClient, orgRole)
	cfg.Credentials = aws.NewCredentialsCache(creds)

	return organizations.NewFromConfig(cfg, func(o *organizations.Options) {
		o.Retryer = retryer()
	}), nil
}
