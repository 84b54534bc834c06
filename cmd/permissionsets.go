package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nicholasgasior/ssopipe/internal/cli"
	"github.com/nicholasgasior/ssopipe/internal/liveindex"
	"github.com/nicholasgasior/ssopipe/internal/logging"
	"github.com/nicholasgasior/ssopipe/internal/progress"
	"github.com/nicholasgasior/ssopipe/internal/reconcile"
	"github.com/nicholasgasior/ssopipe/internal/templates"
	"github.com/nicholasgasior/ssopipe/internal/validate"
)

func newPermissionSetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissionsets",
		Short: "Manage Permission Set reconciliation",
		Long:  "Reconcile the Permission Set template repository against the live IAM Identity Center instance.",
	}
	cmd.AddCommand(newPermissionSetsApplyCommand())
	return cmd
}

func newPermissionSetsApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Converge the live SSO instance to the Permission Set templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			clients := awsClientsFromContext(ctx)
			cliCtx := cli.FromCommand(cmd)
			logger := newLogger(cmd)

			logger.Info("# Starting ssopipe Permission Set reconciliation #")

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

			spinner := progress.NewCommandSpinner(cmd.OutOrStdout(), cliCtx != nil && cliCtx.JSON)
			spinner.Start("discovering SSO instance")

			idx := liveindex.New(clients.ssoadminClient, clients.ssoadminClient, clients.ssoadminClient, clients.ssoadminClient, cfg.Concurrency)
			instanceARN, _, err := idx.Instance(ctx)
			if err != nil {
				spinner.Fail(err.Error())
				return err
			}

			spinner.Update("indexing pipeline-owned permission sets")
			liveIndex, err := idx.Build(ctx, instanceARN)
			if err != nil {
				spinner.Fail(err.Error())
				return err
			}

			auditor, err := logging.NewAuditLogger(filepath.Join(cfg.LogDir, "audit.log"))
			if err != nil {
				spinner.Fail(err.Error())
				return err
			}
			defer auditor.Close()

			rec := reconcile.New(reconcile.Deps{
				Create:         clients.ssoadminClient,
				Update:         clients.ssoadminClient,
				Delete:         clients.ssoadminClient,
				PutInline:      clients.ssoadminClient,
				DeleteInline:   clients.ssoadminClient,
				ListManaged:    clients.ssoadminClient,
				AttachManaged:  clients.ssoadminClient,
				DetachManaged:  clients.ssoadminClient,
				ListCustomer:   clients.ssoadminClient,
				AttachCustomer: clients.ssoadminClient,
				DetachCustomer: clients.ssoadminClient,
				PutBoundary:    clients.ssoadminClient,
				DeleteBoundary: clients.ssoadminClient,
				TagResource:    clients.ssoadminClient,
				Provision:      clients.ssoadminClient,
			}, instanceARN, clients.owner, auditor, logger)

			spinner.Update("converging permission sets")
			updatedIndex, err := rec.Reconcile(ctx, permissionSets, liveIndex)
			if err != nil {
				spinner.Fail(err.Error())
				return err
			}
			spinner.Stop(fmt.Sprintf("converged %d permission sets", len(updatedIndex)))

			names := make([]string, 0, len(permissionSets))
			for _, ps := range permissionSets {
				names = append(names, ps.Name)
			}
			_ = auditor.LogCommand("permissionsets apply", strings.Join(names, ","), clients.ownerARN)

			logger.Info("Permission Set reconciliation complete", "count", len(updatedIndex))

			if cliCtx != nil && cliCtx.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(updatedIndex)
			}
			return nil
		},
	}
}
