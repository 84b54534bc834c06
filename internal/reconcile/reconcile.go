// Package reconcile implements the Permission Set reconciler (C5): it diffs
// the repository catalog against the live-owned index and converges each of
// the five independent facets — general info, inline policy, AWS managed
// policies, customer managed policies, and permission boundary — before
// triggering re-provisioning (§4.5).
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"
	ssoadmintypes "github.com/aws/aws-sdk-go-v2/service/ssoadmin/types"

	"github.com/nicholasgasior/ssopipe/internal/apierr"
	"github.com/nicholasgasior/ssopipe/internal/awssvc"
	"github.com/nicholasgasior/ssopipe/internal/logging"
	"github.com/nicholasgasior/ssopipe/internal/model"
	"github.com/nicholasgasior/ssopipe/internal/tags"
)

// consoleRelayState is substituted for RelayState when a template omits it
// (§3 Permission Set (repository form)).
const consoleRelayState = "https://console.aws.amazon.com/console/home"

// defaultDescription is substituted when a template omits Description (§3).
const defaultDescription = "Managed by ssopipe"

// Reconciler converges a live SSO instance to the repository's desired
// state, one Permission Set at a time, fixed facet order F1→F5→reprovision.
type Reconciler struct {
	create          awssvc.CreatePermissionSetAPI
	update          awssvc.UpdatePermissionSetAPI
	deletePS         awssvc.DeletePermissionSetAPI
	putInline       awssvc.PutInlinePolicyAPI
	deleteInline    awssvc.DeleteInlinePolicyAPI
	listManaged     awssvc.ListManagedPoliciesAPI
	attachManaged   awssvc.AttachManagedPolicyAPI
	detachManaged   awssvc.DetachManagedPolicyAPI
	listCustomer    awssvc.ListCustomerManagedPolicyRefsAPI
	attachCustomer  awssvc.AttachCustomerManagedPolicyReferenceAPI
	detachCustomer  awssvc.DetachCustomerManagedPolicyReferenceAPI
	putBoundary     awssvc.PutPermissionsBoundaryAPI
	deleteBoundary  awssvc.DeletePermissionsBoundaryAPI
	tagResource     awssvc.TagResourceAPI
	provision       awssvc.ProvisionPermissionSetAPI

	instanceARN string
	managedBy   string
	auditor     logging.Auditor
	logger      *slog.Logger
}

// Deps bundles the narrow AWS interfaces the Reconciler needs. All fields
// are required; production callers pass the real *ssoadmin.Client, which
// satisfies every one of them.
type Deps struct {
	Create         awssvc.CreatePermissionSetAPI
	Update         awssvc.UpdatePermissionSetAPI
	Delete         awssvc.DeletePermissionSetAPI
	PutInline      awssvc.PutInlinePolicyAPI
	DeleteInline   awssvc.DeleteInlinePolicyAPI
	ListManaged    awssvc.ListManagedPoliciesAPI
	AttachManaged  awssvc.AttachManagedPolicyAPI
	DetachManaged  awssvc.DetachManagedPolicyAPI
	ListCustomer   awssvc.ListCustomerManagedPolicyRefsAPI
	AttachCustomer awssvc.AttachCustomerManagedPolicyReferenceAPI
	DetachCustomer awssvc.DetachCustomerManagedPolicyReferenceAPI
	PutBoundary    awssvc.PutPermissionsBoundaryAPI
	DeleteBoundary awssvc.DeletePermissionsBoundaryAPI
	TagResource    awssvc.TagResourceAPI
	Provision      awssvc.ProvisionPermissionSetAPI
}

// New constructs a Reconciler scoped to a single SSO instance. managedBy
// identifies the actor recorded on the managed-by tag of newly created
// Permission Sets. auditor may be nil, in which case facet events are not
// recorded.
func New(deps Deps, instanceARN, managedBy string, auditor logging.Auditor, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		create:         deps.Create,
		update:         deps.Update,
		deletePS:        deps.Delete,
		putInline:      deps.PutInline,
		deleteInline:   deps.DeleteInline,
		listManaged:    deps.ListManaged,
		attachManaged:  deps.AttachManaged,
		detachManaged:  deps.DetachManaged,
		listCustomer:   deps.ListCustomer,
		attachCustomer: deps.AttachCustomer,
		detachCustomer: deps.DetachCustomer,
		putBoundary:    deps.PutBoundary,
		deleteBoundary: deps.DeleteBoundary,
		tagResource:    deps.TagResource,
		provision:      deps.Provision,
		instanceARN:    instanceARN,
		managedBy:      managedBy,
		auditor:        auditor,
		logger:         logger,
	}
}

// Reconcile converges repo against liveIndex (name → ARN of pipeline-owned
// Permission Sets) and returns the updated index reflecting every create.
// All creates and updates complete before any delete is attempted (§5).
func (r *Reconciler) Reconcile(ctx context.Context, repo []model.PermissionSet, liveIndex map[string]string) (map[string]string, error) {
	desired := make(map[string]model.PermissionSet, len(repo))
	for _, ps := range repo {
		desired[ps.Name] = ps
	}

	resultIndex := make(map[string]string, len(liveIndex))
	for name, arn := range liveIndex {
		resultIndex[name] = arn
	}

	for _, ps := range repo {
		arn, exists := liveIndex[ps.Name]
		if !exists {
			newARN, err := r.createPermissionSet(ctx, ps)
			if err != nil {
				return nil, err
			}
			arn = newARN
			resultIndex[ps.Name] = arn
			r.audit("create", ps.Name, arn, "created")
		} else {
			r.audit("update", ps.Name, arn, "converging facets")
		}

		if err := r.converge(ctx, ps, arn); err != nil {
			return nil, err
		}
	}

	for name, arn := range liveIndex {
		if _, wanted := desired[name]; wanted {
			continue
		}
		if err := r.deletePermissionSet(ctx, name, arn); err != nil {
			return nil, err
		}
		delete(resultIndex, name)
	}

	return resultIndex, nil
}

// createPermissionSet calls CreatePermissionSet with Name, Description, SessionDuration,
// and the ownership tag, returning the new ARN (§4.5 CREATE).
func (r *Reconciler) createPermissionSet(ctx context.Context, ps model.PermissionSet) (string, error) {
	description := ps.Description
	if description == "" {
		description = defaultDescription
	}

	out, err := r.create.CreatePermissionSet(ctx, &ssoadmin.CreatePermissionSetInput{
		InstanceArn:     aws.String(r.instanceARN),
		Name:            aws.String(ps.Name),
		Description:     aws.String(description),
		SessionDuration: stringOrNil(ps.SessionDuration),
		Tags:            tags.NewTagBuilder(r.managedBy).Build(),
	})
	if err != nil {
		return "", apierr.Classify(fmt.Sprintf("create permission set %s", ps.Name), err)
	}
	if out.PermissionSet == nil || out.PermissionSet.PermissionSetArn == nil {
		return "", fmt.Errorf("create permission set %s: empty response", ps.Name)
	}
	return aws.ToString(out.PermissionSet.PermissionSetArn), nil
}

// converge runs the five facets in fixed order, then reprovisions.
func (r *Reconciler) converge(ctx context.Context, ps model.PermissionSet, arn string) error {
	if err := r.facetGeneralInfo(ctx, ps, arn); err != nil {
		return err
	}
	if err := r.facetInlinePolicy(ctx, ps, arn); err != nil {
		return err
	}
	if err := r.facetManagedPolicies(ctx, ps, arn); err != nil {
		return err
	}
	if err := r.facetCustomerManagedPolicies(ctx, ps, arn); err != nil {
		return err
	}
	if err := r.facetPermissionBoundary(ctx, ps, arn); err != nil {
		return err
	}
	return r.reprovision(ctx, ps.Name, arn)
}

// facetGeneralInfo implements F1: overwrite Description, SessionDuration,
// RelayState (defaulting RelayState to the console root URL).
func (r *Reconciler) facetGeneralInfo(ctx context.Context, ps model.PermissionSet, arn string) error {
	description := ps.Description
	if description == "" {
		description = defaultDescription
	}
	relayState := ps.RelayState
	if relayState == "" {
		relayState = consoleRelayState
	}

	_, err := r.update.UpdatePermissionSet(ctx, &ssoadmin.UpdatePermissionSetInput{
		InstanceArn:      aws.String(r.instanceARN),
		PermissionSetArn: aws.String(arn),
		Description:      aws.String(description),
		SessionDuration:  stringOrNil(ps.SessionDuration),
		RelayState:       aws.String(relayState),
	})
	if err != nil {
		return apierr.Classify(fmt.Sprintf("update general info for %s", ps.Name), err)
	}
	r.audit("facet:general-info", ps.Name, arn, "converged")
	return nil
}

// facetInlinePolicy implements F2: put the custom policy as the inline
// policy, or delete any existing inline policy if the template has none.
// A "not found" delete response is treated as idempotent success.
func (r *Reconciler) facetInlinePolicy(ctx context.Context, ps model.PermissionSet, arn string) error {
	if len(ps.CustomPolicy) > 0 {
		_, err := r.putInline.PutInlinePolicyToPermissionSet(ctx, &ssoadmin.PutInlinePolicyToPermissionSetInput{
			InstanceArn:      aws.String(r.instanceARN),
			PermissionSetArn: aws.String(arn),
			InlinePolicy:     aws.String(string(ps.CustomPolicy)),
		})
		if err != nil {
			return apierr.Classify(fmt.Sprintf("put inline policy for %s", ps.Name), err)
		}
		r.audit("facet:inline-policy", ps.Name, arn, "put")
		return nil
	}

	_, err := r.deleteInline.DeleteInlinePolicyFromPermissionSet(ctx, &ssoadmin.DeleteInlinePolicyFromPermissionSetInput{
		InstanceArn:      aws.String(r.instanceARN),
		PermissionSetArn: aws.String(arn),
	})
	if err != nil && !isResourceNotFound(err) {
		return apierr.Classify(fmt.Sprintf("delete inline policy for %s", ps.Name), err)
	}
	r.audit("facet:inline-policy", ps.Name, arn, "removed")
	return nil
}

// facetManagedPolicies implements F3: symmetric-difference attach/detach of
// AWS managed policy ARNs.
func (r *Reconciler) facetManagedPolicies(ctx context.Context, ps model.PermissionSet, arn string) error {
	current, err := r.currentManagedPolicyARNs(ctx, arn)
	if err != nil {
		return apierr.Classify(fmt.Sprintf("list managed policies for %s", ps.Name), err)
	}

	desired := toSet(ps.ManagedPolicies)
	currentSet := toSet(current)

	for policyARN := range setDifference(desired, currentSet) {
		_, err := r.attachManaged.AttachManagedPolicyToPermissionSet(ctx, &ssoadmin.AttachManagedPolicyToPermissionSetInput{
			InstanceArn:      aws.String(r.instanceARN),
			PermissionSetArn: aws.String(arn),
			ManagedPolicyArn: aws.String(policyARN),
		})
		if err != nil && !isAlreadyAttached(err) {
			return apierr.Classify(fmt.Sprintf("attach managed policy %s to %s", policyARN, ps.Name), err)
		}
	}

	for policyARN := range setDifference(currentSet, desired) {
		_, err := r.detachManaged.DetachManagedPolicyFromPermissionSet(ctx, &ssoadmin.DetachManagedPolicyFromPermissionSetInput{
			InstanceArn:      aws.String(r.instanceARN),
			PermissionSetArn: aws.String(arn),
			ManagedPolicyArn: aws.String(policyARN),
		})
		if err != nil && !isResourceNotFound(err) {
			return apierr.Classify(fmt.Sprintf("detach managed policy %s from %s", policyARN, ps.Name), err)
		}
	}

	r.audit("facet:managed-policies", ps.Name, arn, "converged")
	return nil
}

func (r *Reconciler) currentManagedPolicyARNs(ctx context.Context, arn string) ([]string, error) {
	return awssvc.CollectPages(ctx, func(ctx context.Context, token string) ([]string, string, error) {
		var next *string
		if token != "" {
			next = aws.String(token)
		}
		out, err := r.listManaged.ListManagedPoliciesInPermissionSet(ctx, &ssoadmin.ListManagedPoliciesInPermissionSetInput{
			InstanceArn:      aws.String(r.instanceARN),
			PermissionSetArn: aws.String(arn),
			NextToken:        next,
		})
		if err != nil {
			return nil, "", err
		}
		arns := make([]string, 0, len(out.AttachedManagedPolicies))
		for _, p := range out.AttachedManagedPolicies {
			arns = append(arns, aws.ToString(p.Arn))
		}
		return arns, aws.ToString(out.NextToken), nil
	})
}

// facetCustomerManagedPolicies implements F4: the same symmetric-difference
// logic as F3, keyed by policy name rather than ARN.
func (r *Reconciler) facetCustomerManagedPolicies(ctx context.Context, ps model.PermissionSet, arn string) error {
	current, err := r.currentCustomerManagedPolicyNames(ctx, arn)
	if err != nil {
		return apierr.Classify(fmt.Sprintf("list customer managed policies for %s", ps.Name), err)
	}

	desired := toSet(ps.CustomerManagedPolicies)
	currentSet := toSet(current)

	for name := range setDifference(desired, currentSet) {
		_, err := r.attachCustomer.AttachCustomerManagedPolicyReferenceToPermissionSet(ctx,
			&ssoadmin.AttachCustomerManagedPolicyReferenceToPermissionSetInput{
				InstanceArn:      aws.String(r.instanceARN),
				PermissionSetArn: aws.String(arn),
				CustomerManagedPolicyReference: &ssoadmintypes.CustomerManagedPolicyReference{
					Name: aws.String(name),
					Path: aws.String("/"),
				},
			})
		if err != nil && !isAlreadyAttached(err) {
			return apierr.Classify(fmt.Sprintf("attach customer managed policy %s to %s", name, ps.Name), err)
		}
	}

	for name := range setDifference(currentSet, desired) {
		_, err := r.detachCustomer.DetachCustomerManagedPolicyReferenceFromPermissionSet(ctx,
			&ssoadmin.DetachCustomerManagedPolicyReferenceFromPermissionSetInput{
				InstanceArn:      aws.String(r.instanceARN),
				PermissionSetArn: aws.String(arn),
				CustomerManagedPolicyReference: &ssoadmintypes.CustomerManagedPolicyReference{
					Name: aws.String(name),
					Path: aws.String("/"),
				},
			})
		if err != nil && !isResourceNotFound(err) {
			return apierr.Classify(fmt.Sprintf("detach customer managed policy %s from %s", name, ps.Name), err)
		}
	}

	r.audit("facet:customer-managed-policies", ps.Name, arn, "converged")
	return nil
}

func (r *Reconciler) currentCustomerManagedPolicyNames(ctx context.Context, arn string) ([]string, error) {
	return awssvc.CollectPages(ctx, func(ctx context.Context, token string) ([]string, string, error) {
		var next *string
		if token != "" {
			next = aws.String(token)
		}
		out, err := r.listCustomer.ListCustomerManagedPolicyReferencesInPermissionSet(ctx,
			&ssoadmin.ListCustomerManagedPolicyReferencesInPermissionSetInput{
				InstanceArn:      aws.String(r.instanceARN),
				PermissionSetArn: aws.String(arn),
				NextToken:        next,
			})
		if err != nil {
			return nil, "", err
		}
		names := make([]string, 0, len(out.CustomerManagedPolicyReferences))
		for _, ref := range out.CustomerManagedPolicyReferences {
			names = append(names, aws.ToString(ref.Name))
		}
		return names, aws.ToString(out.NextToken), nil
	})
}

// facetPermissionBoundary implements F5: attach the template's boundary
// (overwriting any existing one), or delete any existing boundary if the
// template has none.
func (r *Reconciler) facetPermissionBoundary(ctx context.Context, ps model.PermissionSet, arn string) error {
	if ps.PermissionBoundary == nil {
		_, err := r.deleteBoundary.DeletePermissionsBoundaryFromPermissionSet(ctx,
			&ssoadmin.DeletePermissionsBoundaryFromPermissionSetInput{
				InstanceArn:      aws.String(r.instanceARN),
				PermissionSetArn: aws.String(arn),
			})
		if err != nil && !isResourceNotFound(err) {
			return apierr.Classify(fmt.Sprintf("delete permission boundary for %s", ps.Name), err)
		}
		r.audit("facet:permission-boundary", ps.Name, arn, "removed")
		return nil
	}

	boundary := &ssoadmintypes.PermissionsBoundary{}
	switch ps.PermissionBoundary.PolicyType {
	case model.PermissionBoundaryAWS:
		boundary.ManagedPolicyArn = aws.String(ps.PermissionBoundary.Policy)
	case model.PermissionBoundaryCustomer:
		boundary.CustomerManagedPolicyReference = &ssoadmintypes.CustomerManagedPolicyReference{
			Name: aws.String(ps.PermissionBoundary.Policy),
			Path: aws.String("/"),
		}
	}

	_, err := r.putBoundary.PutPermissionsBoundaryToPermissionSet(ctx, &ssoadmin.PutPermissionsBoundaryToPermissionSetInput{
		InstanceArn:         aws.String(r.instanceARN),
		PermissionSetArn:    aws.String(arn),
		PermissionsBoundary: boundary,
	})
	if err != nil && !isAlreadyAttached(err) {
		return apierr.Classify(fmt.Sprintf("put permission boundary for %s", ps.Name), err)
	}
	r.audit("facet:permission-boundary", ps.Name, arn, "put")
	return nil
}

// reprovision triggers ProvisionPermissionSet against
// ALL_PROVISIONED_ACCOUNTS. Re-provisioning is asynchronous on the remote
// side and fire-and-forget from the engine's perspective (§4.5).
func (r *Reconciler) reprovision(ctx context.Context, name, arn string) error {
	_, err := r.provision.ProvisionPermissionSet(ctx, &ssoadmin.ProvisionPermissionSetInput{
		InstanceArn:      aws.String(r.instanceARN),
		PermissionSetArn: aws.String(arn),
		TargetType:       ssoadmintypes.ProvisionTargetTypeAllProvisionedAccounts,
	})
	if err != nil {
		return apierr.Classify(fmt.Sprintf("reprovision %s", name), err)
	}
	r.audit("reprovision", name, arn, "triggered")
	return nil
}

// deletePermissionSet removes a live Permission Set that is no longer
// present in the repository (§4.5 DELETE).
func (r *Reconciler) deletePermissionSet(ctx context.Context, name, arn string) error {
	_, err := r.deletePS.DeletePermissionSet(ctx, &ssoadmin.DeletePermissionSetInput{
		InstanceArn:      aws.String(r.instanceARN),
		PermissionSetArn: aws.String(arn),
	})
	if err != nil && !isResourceNotFound(err) {
		return apierr.Classify(fmt.Sprintf("delete permission set %s", name), err)
	}
	r.audit("delete", name, arn, "deleted")
	return nil
}

func (r *Reconciler) audit(event, name, arn, outcome string) {
	r.logger.Info(event, slog.String("permission_set", name), slog.String("arn", arn), slog.String("outcome", outcome))
	if r.auditor == nil {
		return
	}
	if err := r.auditor.LogCommand(event, name, arn); err != nil {
		r.logger.Warn("audit log write failed", slog.String("error", err.Error()))
	}
}

// isResourceNotFound reports whether err represents AWS's "resource not
// found" condition, treated as idempotent success for deletes (§4.5 F2/F3/F5).
func isResourceNotFound(err error) bool {
	var notFound *ssoadmintypes.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return true
	}
	return strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "NotFound")
}

// isAlreadyAttached reports whether err represents AWS's "already attached"
// conflict condition, treated as idempotent success for attaches (§4.5 F3/F4/F5).
func isAlreadyAttached(err error) bool {
	var conflict *ssoadmintypes.ConflictException
	if errors.As(err, &conflict) {
		return true
	}
	return strings.Contains(err.Error(), "already attached") || strings.Contains(err.Error(), "ALREADY_EXISTS")
}

func stringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func setDifference(a, b map[string]struct{}) map[string]struct{} {
	diff := make(map[string]struct{})
	for k := range a {
		if _, ok := b[k]; !ok {
			diff[k] = struct{}{}
		}
	}
	return diff
}
