// Package validate enforces the repository-level invariants that must hold
// before any live write is attempted: unique names and SIDs, custom-policy
// wellformedness, and managed-policy ARN resolvability (§4.3).
package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/accessanalyzer"
	accessanalyzertypes "github.com/aws/aws-sdk-go-v2/service/accessanalyzer/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"log/slog"

	"github.com/nicholasgasior/ssopipe/internal/apierr"
	"github.com/nicholasgasior/ssopipe/internal/awssvc"
	"github.com/nicholasgasior/ssopipe/internal/model"
)

// Validator runs the four static checks of §4.3 over a loaded template
// catalog, in order, aborting at the first failure.
type Validator struct {
	validatePolicy awssvc.ValidatePolicyAPI
	getPolicy      awssvc.GetPolicyAPI
	logger         *slog.Logger
}

// New constructs a Validator. Pass the real accessanalyzer.Client and
// iam.Client in production; mocks satisfy the same narrow interfaces in
// tests.
func New(validatePolicy awssvc.ValidatePolicyAPI, getPolicy awssvc.GetPolicyAPI, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{validatePolicy: validatePolicy, getPolicy: getPolicy, logger: logger}
}

// Run executes checks 1-4 in order over permissionSets and assignments.
// The first failing check returns a *apierr.TemplateError, except that a
// failed Access Analyzer ValidatePolicy call returns the apierr.Classify
// result; no live write is ever attempted before Run returns nil.
func (v *Validator) Run(ctx context.Context, permissionSets []model.PermissionSet, assignments []model.Assignment) error {
	if err := uniquePermissionSetNames(permissionSets); err != nil {
		return err
	}
	if err := uniqueAssignmentSIDs(assignments); err != nil {
		return err
	}
	if err := v.validateCustomPolicies(ctx, permissionSets); err != nil {
		return err
	}
	if err := v.validateManagedPolicies(ctx, permissionSets); err != nil {
		return err
	}
	return nil
}

// uniquePermissionSetNames implements check 1: unique Name across the
// Permission Set catalog (I1).
func uniquePermissionSetNames(permissionSets []model.PermissionSet) error {
	seen := make(map[string]string, len(permissionSets))
	for _, ps := range permissionSets {
		if prior, ok := seen[ps.Name]; ok {
			return &apierr.TemplateError{
				File:   ps.SourceFile,
				Reason: fmt.Sprintf("duplicate permission set name %q (also defined in %s)", ps.Name, prior),
			}
		}
		seen[ps.Name] = ps.SourceFile
	}
	return nil
}

// uniqueAssignmentSIDs implements check 2: unique SID across the flattened
// Assignment list (I2).
func uniqueAssignmentSIDs(assignments []model.Assignment) error {
	seen := make(map[string]string, len(assignments))
	for _, a := range assignments {
		if prior, ok := seen[a.SID]; ok {
			return &apierr.TemplateError{
				File:   a.SourceFile,
				Reason: fmt.Sprintf("duplicate assignment SID %q (also defined in %s)", a.SID, prior),
			}
		}
		seen[a.SID] = a.SourceFile
	}
	return nil
}

// validateCustomPolicies implements check 3: for every Permission Set
// carrying a non-empty CustomPolicy, submit it to Access Analyzer as an
// identity policy. Any ERROR finding is fatal; WARNING findings are logged
// and non-fatal (I5).
func (v *Validator) validateCustomPolicies(ctx context.Context, permissionSets []model.PermissionSet) error {
	for _, ps := range permissionSets {
		if len(ps.CustomPolicy) == 0 {
			continue
		}

		out, err := v.validatePolicy.ValidatePolicy(ctx, &accessanalyzer.ValidatePolicyInput{
			PolicyDocument: aws.String(string(ps.CustomPolicy)),
			PolicyType:     accessanalyzertypes.PolicyTypeIdentityPolicy,
		})
		if err != nil {
			return apierr.Classify(fmt.Sprintf("validate custom policy for %s", ps.Name), err)
		}

		for _, finding := range out.Findings {
			attrs := []any{
				slog.String("permission_set", ps.Name),
				slog.String("finding_type", string(finding.FindingType)),
			}
			if finding.FindingType == accessanalyzertypes.ValidatePolicyFindingTypeError {
				return &apierr.TemplateError{
					File:   ps.SourceFile,
					Reason: fmt.Sprintf("custom policy invalid: %s", aws.ToString(finding.FindingDetails)),
				}
			}
			v.logger.Warn("custom policy validation finding", attrs...)
		}
	}
	return nil
}

// validateManagedPolicies implements check 4: every AWS managed policy ARN
// in ManagedPolicies and in an AWS PermissionBoundary must resolve via IAM;
// a CUSTOMER boundary's Policy value must not look like an ARN (I6).
func (v *Validator) validateManagedPolicies(ctx context.Context, permissionSets []model.PermissionSet) error {
	resolved := make(map[string]bool)

	for _, ps := range permissionSets {
		for _, arn := range ps.ManagedPolicies {
			if err := v.resolveManagedPolicyARN(ctx, ps, arn, resolved); err != nil {
				return err
			}
		}

		if ps.PermissionBoundary == nil {
			continue
		}

		switch ps.PermissionBoundary.PolicyType {
		case model.PermissionBoundaryAWS:
			if err := v.resolveManagedPolicyARN(ctx, ps, ps.PermissionBoundary.Policy, resolved); err != nil {
				return err
			}
		case model.PermissionBoundaryCustomer:
			if strings.HasPrefix(ps.PermissionBoundary.Policy, "arn:aws") {
				return &apierr.TemplateError{
					File: ps.SourceFile,
					Reason: fmt.Sprintf(
						"customer-managed permission boundary %q must be a policy name, not an ARN",
						ps.PermissionBoundary.Policy,
					),
				}
			}
		default:
			return &apierr.TemplateError{
				File:   ps.SourceFile,
				Reason: fmt.Sprintf("unknown permission boundary type %q", ps.PermissionBoundary.PolicyType),
			}
		}
	}

	return nil
}

// resolveManagedPolicyARN calls IAM GetPolicy once per distinct ARN across
// the whole run (cached in resolved), failing with a TemplateError if the
// ARN does not exist.
func (v *Validator) resolveManagedPolicyARN(ctx context.Context, ps model.PermissionSet, arn string, resolved map[string]bool) error {
	if resolved[arn] {
		return nil
	}

	_, err := v.getPolicy.GetPolicy(ctx, &iam.GetPolicyInput{PolicyArn: aws.String(arn)})
	if err != nil {
		return &apierr.TemplateError{
			File:   ps.SourceFile,
			Reason: fmt.Sprintf("managed policy %q does not resolve in IAM: %v", arn, err),
		}
	}

	resolved[arn] = true
	return nil
}
