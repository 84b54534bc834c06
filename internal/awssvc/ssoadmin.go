// Package awssvc provides thin wrappers around AWS SDK clients used by
// ssopipe. Each interface wraps exactly one AWS SDK method, enabling mock
// injection in tests without depending on the concrete SDK client type.
package awssvc

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"
)

// ---------------------------------------------------------------------------
// SSO Admin interfaces
// ---------------------------------------------------------------------------

// ListSSOInstancesAPI discovers the account's SSO instance ARN and identity
// store ID.
type ListSSOInstancesAPI interface {
	ListInstances(ctx context.Context, params *ssoadmin.ListInstancesInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListInstancesOutput, error)
}

// ListPermissionSetsAPI enumerates all permission sets provisioned in the
// SSO instance.
type ListPermissionSetsAPI interface {
	ListPermissionSets(ctx context.Context, params *ssoadmin.ListPermissionSetsInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListPermissionSetsOutput, error)
}

// DescribePermissionSetAPI fetches the details (name, description, session
// duration) of a specific permission set.
type DescribePermissionSetAPI interface {
	DescribePermissionSet(ctx context.Context, params *ssoadmin.DescribePermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.DescribePermissionSetOutput, error)
}

// CreatePermissionSetAPI creates a new, empty permission set.
type CreatePermissionSetAPI interface {
	CreatePermissionSet(ctx context.Context, params *ssoadmin.CreatePermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.CreatePermissionSetOutput, error)
}

// UpdatePermissionSetAPI updates general information (description, relay
// state, session duration) of an existing permission set.
type UpdatePermissionSetAPI interface {
	UpdatePermissionSet(ctx context.Context, params *ssoadmin.UpdatePermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.UpdatePermissionSetOutput, error)
}

// DeletePermissionSetAPI removes a permission set entirely.
type DeletePermissionSetAPI interface {
	DeletePermissionSet(ctx context.Context, params *ssoadmin.DeletePermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.DeletePermissionSetOutput, error)
}

// PutInlinePolicyAPI attaches or replaces the inline policy document on a
// permission set.
type PutInlinePolicyAPI interface {
	PutInlinePolicyToPermissionSet(ctx context.Context, params *ssoadmin.PutInlinePolicyToPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.PutInlinePolicyToPermissionSetOutput, error)
}

// DeleteInlinePolicyAPI removes the inline policy document from a permission
// set.
type DeleteInlinePolicyAPI interface {
	DeleteInlinePolicyFromPermissionSet(ctx context.Context, params *ssoadmin.DeleteInlinePolicyFromPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.DeleteInlinePolicyFromPermissionSetOutput, error)
}

// ListManagedPoliciesAPI lists the AWS-managed policies currently attached
// to a permission set.
type ListManagedPoliciesAPI interface {
	ListManagedPoliciesInPermissionSet(ctx context.Context, params *ssoadmin.ListManagedPoliciesInPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListManagedPoliciesInPermissionSetOutput, error)
}

// AttachManagedPolicyAPI attaches an AWS-managed policy to a permission set.
type AttachManagedPolicyAPI interface {
	AttachManagedPolicyToPermissionSet(ctx context.Context, params *ssoadmin.AttachManagedPolicyToPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.AttachManagedPolicyToPermissionSetOutput, error)
}

// DetachManagedPolicyAPI detaches an AWS-managed policy from a permission
// set.
type DetachManagedPolicyAPI interface {
	DetachManagedPolicyFromPermissionSet(ctx context.Context, params *ssoadmin.DetachManagedPolicyFromPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.DetachManagedPolicyFromPermissionSetOutput, error)
}

// ListCustomerManagedPolicyRefsAPI lists the customer-managed policy
// references currently attached to a permission set.
type ListCustomerManagedPolicyRefsAPI interface {
	ListCustomerManagedPolicyReferencesInPermissionSet(ctx context.Context, params *ssoadmin.ListCustomerManagedPolicyReferencesInPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListCustomerManagedPolicyReferencesInPermissionSetOutput, error)
}

// AttachCustomerManagedPolicyReferenceAPI attaches a customer-managed IAM
// policy reference to a permission set.
type AttachCustomerManagedPolicyReferenceAPI interface {
	AttachCustomerManagedPolicyReferenceToPermissionSet(ctx context.Context, params *ssoadmin.AttachCustomerManagedPolicyReferenceToPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.AttachCustomerManagedPolicyReferenceToPermissionSetOutput, error)
}

// DetachCustomerManagedPolicyReferenceAPI detaches a customer-managed IAM
// policy reference from a permission set.
type DetachCustomerManagedPolicyReferenceAPI interface {
	DetachCustomerManagedPolicyReferenceFromPermissionSet(ctx context.Context, params *ssoadmin.DetachCustomerManagedPolicyReferenceFromPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.DetachCustomerManagedPolicyReferenceFromPermissionSetOutput, error)
}

// PutPermissionsBoundaryAPI sets the permissions boundary policy on a
// permission set.
type PutPermissionsBoundaryAPI interface {
	PutPermissionsBoundaryToPermissionSet(ctx context.Context, params *ssoadmin.PutPermissionsBoundaryToPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.PutPermissionsBoundaryToPermissionSetOutput, error)
}

// DeletePermissionsBoundaryAPI removes the permissions boundary policy from
// a permission set.
type DeletePermissionsBoundaryAPI interface {
	DeletePermissionsBoundaryFromPermissionSet(ctx context.Context, params *ssoadmin.DeletePermissionsBoundaryFromPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.DeletePermissionsBoundaryFromPermissionSetOutput, error)
}

// ListTagsForResourceAPI lists the ownership tags on a permission set or
// account assignment resource, used to scope reconciliation to pipeline-
// owned resources.
type ListTagsForResourceAPI interface {
	ListTagsForResource(ctx context.Context, params *ssoadmin.ListTagsForResourceInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListTagsForResourceOutput, error)
}

// TagResourceAPI applies ownership tags to a permission set so the live
// indexer can recognize it as pipeline-managed on subsequent runs.
type TagResourceAPI interface {
	TagResource(ctx context.Context, params *ssoadmin.TagResourceInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.TagResourceOutput, error)
}

// ProvisionPermissionSetAPI propagates permission set changes to all
// assigned accounts.
type ProvisionPermissionSetAPI interface {
	ProvisionPermissionSet(ctx context.Context, params *ssoadmin.ProvisionPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ProvisionPermissionSetOutput, error)
}

// CreateAccountAssignmentAPI grants a principal access to a permission set
// in a target account.
type CreateAccountAssignmentAPI interface {
	CreateAccountAssignment(ctx context.Context, params *ssoadmin.CreateAccountAssignmentInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.CreateAccountAssignmentOutput, error)
}

// DeleteAccountAssignmentAPI revokes a principal's access to a permission
// set in a target account.
type DeleteAccountAssignmentAPI interface {
	DeleteAccountAssignment(ctx context.Context, params *ssoadmin.DeleteAccountAssignmentInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.DeleteAccountAssignmentOutput, error)
}

// ListAccountAssignmentsAPI enumerates the live account assignments for a
// permission set in a target account.
type ListAccountAssignmentsAPI interface {
	ListAccountAssignments(ctx context.Context, params *ssoadmin.ListAccountAssignmentsInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListAccountAssignmentsOutput, error)
}

// ---------------------------------------------------------------------------
// Compile-time interface satisfaction checks
// ---------------------------------------------------------------------------

var (
	_ ListSSOInstancesAPI                             = (*ssoadmin.Client)(nil)
	_ ListPermissionSetsAPI                           = (*ssoadmin.Client)(nil)
	_ DescribePermissionSetAPI                        = (*ssoadmin.Client)(nil)
	_ CreatePermissionSetAPI                          = (*ssoadmin.Client)(nil)
	_ UpdatePermissionSetAPI                          = (*ssoadmin.Client)(nil)
	_ DeletePermissionSetAPI                          = (*ssoadmin.Client)(nil)
	_ PutInlinePolicyAPI                              = (*ssoadmin.Client)(nil)
	_ DeleteInlinePolicyAPI                           = (*ssoadmin.Client)(nil)
	_ ListManagedPoliciesAPI                          = (*ssoadmin.Client)(nil)
	_ AttachManagedPolicyAPI                          = (*ssoadmin.Client)(nil)
	_ DetachManagedPolicyAPI                          = (*ssoadmin.Client)(nil)
	_ ListCustomerManagedPolicyRefsAPI                = (*ssoadmin.Client)(nil)
	_ AttachCustomerManagedPolicyReferenceAPI         = (*ssoadmin.Client)(nil)
	_ DetachCustomerManagedPolicyReferenceAPI         = (*ssoadmin.Client)(nil)
	_ PutPermissionsBoundaryAPI                       = (*ssoadmin.Client)(nil)
	_ DeletePermissionsBoundaryAPI                    = (*ssoadmin.Client)(nil)
	_ ListTagsForResourceAPI                          = (*ssoadmin.Client)(nil)
	_ TagResourceAPI                                  = (*ssoadmin.Client)(nil)
	_ ProvisionPermissionSetAPI                       = (*ssoadmin.Client)(nil)
	_ CreateAccountAssignmentAPI                      = (*ssoadmin.Client)(nil)
	_ DeleteAccountAssignmentAPI                      = (*ssoadmin.Client)(nil)
	_ ListAccountAssignmentsAPI                       = (*ssoadmin.Client)(nil)
)
