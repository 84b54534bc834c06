package awssvc

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/accessanalyzer"
)

// ValidatePolicyAPI runs IAM Access Analyzer policy validation against an
// inline policy document, surfacing ERROR and WARNING findings before a
// permission set template is ever applied against a live SSO instance.
type ValidatePolicyAPI interface {
	ValidatePolicy(ctx context.Context, params *accessanalyzer.ValidatePolicyInput, optFns ...func(*accessanalyzer.Options)) (*accessanalyzer.ValidatePolicyOutput, error)
}

var _ ValidatePolicyAPI = (*accessanalyzer.Client)(nil)
