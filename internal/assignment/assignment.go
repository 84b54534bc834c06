// Package assignment expands the repository's Assignment catalog into a
// flat, deduplicated list of resolved assignment records for a downstream
// applier (§4.8).
package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nicholasgasior/ssopipe/internal/apierr"
	"github.com/nicholasgasior/ssopipe/internal/model"
)

// PrincipalResolver is the subset of principal.Resolver the expander needs.
type PrincipalResolver interface {
	Resolve(ctx context.Context, name string, principalType model.PrincipalType) (string, error)
}

// TargetResolver is the subset of target.Resolver the expander needs.
type TargetResolver interface {
	Resolve(ctx context.Context, rawTarget string) ([]string, error)
}

// Expander produces the Cartesian product of resolved principal × resolved
// accounts × permission-set ARN for every repository assignment (§4.8).
type Expander struct {
	principals        PrincipalResolver
	targets           TargetResolver
	permissionSetARNs map[string]string // name -> ARN, from the live index (C4/C5)
	managementAccount string
	logger            *slog.Logger
}

// New constructs an Expander. permissionSetARNs is the live index produced
// by the reconciler (C4/C5), keyed by Permission Set name.
func New(principals PrincipalResolver, targets TargetResolver, permissionSetARNs map[string]string, managementAccount string, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{
		principals:        principals,
		targets:           targets,
		permissionSetARNs: permissionSetARNs,
		managementAccount: managementAccount,
		logger:            logger,
	}
}

// Expand processes every repository assignment: resolves the principal
// (skip on miss), expands and unions every Target expression, looks up the
// Permission Set ARN (fatal on miss), and emits one resolved record per
// (account, principal, permission set) triple excluding the management
// account, then deduplicates by full-record equality preserving first
// occurrence (§4.8 steps 1-5).
func (e *Expander) Expand(ctx context.Context, assignments []model.Assignment) ([]model.ResolvedAssignment, error) {
	var out []model.ResolvedAssignment
	seen := make(map[model.ResolvedAssignment]bool)

	for _, a := range assignments {
		principalID, err := e.principals.Resolve(ctx, a.PrincipalId, a.PrincipalType)
		if err != nil {
			var notFound *apierr.PrincipalNotFound
			if errors.As(err, &notFound) {
				e.logger.Warn("principal not found, skipping assignment",
					slog.String("sid", a.SID), slog.String("principal", a.PrincipalId))
				continue
			}
			return nil, err
		}

		accounts := make(map[string]bool)
		targetFailed := false
		for _, rawTarget := range a.Target {
			resolved, err := e.targets.Resolve(ctx, rawTarget)
			if err != nil {
				e.logger.Warn("target resolution failed, skipping assignment",
					slog.String("sid", a.SID), slog.String("target", rawTarget), slog.String("reason", err.Error()))
				targetFailed = true
				break
			}
			for _, acct := range resolved {
				accounts[acct] = true
			}
		}
		if targetFailed {
			continue
		}

		permSetARN, ok := e.permissionSetARNs[a.PermissionSetName]
		if !ok {
			return nil, fmt.Errorf("assignment %q: permission set %q not found in live index after reconciliation",
				a.SID, a.PermissionSetName)
		}

		for acct := range accounts {
			if acct == e.managementAccount {
				continue
			}

			record := model.ResolvedAssignment{
				Sid:               acct + a.PrincipalId + string(a.PrincipalType) + a.PermissionSetName,
				PrincipalId:       principalID,
				PrincipalType:     a.PrincipalType,
				PermissionSetName: permSetARN,
				Target:            acct,
			}

			if seen[record] {
				continue
			}
			seen[record] = true
			out = append(out, record)
		}
	}

	return out, nil
}

// WriteFile serializes records as a flat top-level JSON array (not an
// {"Assignments": [...]} envelope — downstream consumers depend on this
// shape) to path.
func WriteFile(path string, records []model.ResolvedAssignment) error {
	if records == nil {
		records = []model.ResolvedAssignment{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal resolved assignments: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
