package awssvc

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/smithy-go"
)

// MaxAttempts bounds the adaptive retryer's attempt count. IAM Identity
// Center and Organizations throttle aggressively under concurrent
// reconciliation; a high ceiling lets the adaptive rate limiter converge
// instead of failing a long-running reconcile on a transient burst.
const MaxAttempts = 1000

// NewRetryer returns the adaptive retryer used by every ssopipe AWS client.
// Adaptive mode tracks the client-side rate limit from observed throttling
// responses rather than a fixed backoff schedule.
func NewRetryer() aws.RetryerV2 {
	return retry.NewAdaptiveMode(func(o *retry.AdaptiveModeOptions) {
		o.StandardOptions = append(o.StandardOptions, func(so *retry.StandardOptions) {
			so.MaxAttempts = MaxAttempts
		})
	})
}

// IsThrottle reports whether err is a retryable throttling or server error
// from the AWS API, distinct from a permanent validation failure.
func IsThrottle(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ThrottlingException", "TooManyRequestsException", "ServiceUnavailableException", "InternalServerException":
		return true
	default:
		return false
	}
}
