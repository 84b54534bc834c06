// This file defines narrow interfaces for IAM operations needed by the
// validator to confirm that policies referenced by permission set templates
// actually exist and are resolvable. Each interface wraps exactly one AWS
// SDK method, enabling mock injection in tests.
package awssvc

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/iam"
)

// GetPolicyAPI resolves a customer-managed IAM policy ARN, confirming the
// policy exists before a permission set template references it.
type GetPolicyAPI interface {
	GetPolicy(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error)
}

var _ GetPolicyAPI = (*iam.Client)(nil)
