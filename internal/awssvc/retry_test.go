package awssvc

import (
	"errors"
	"testing"

	"github.com/aws/smithy-go"
)

type fakeAPIError struct {
	code string
}

func (f fakeAPIError) Error() string     { return f.code }
func (f fakeAPIError) ErrorCode() string { return f.code }
func (f fakeAPIError) ErrorMessage() string {
	return f.code
}
func (f fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultUnknown }

func TestIsThrottleRecognizesThrottlingCodes(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"ThrottlingException", true},
		{"TooManyRequestsException", true},
		{"ServiceUnavailableException", true},
		{"InternalServerException", true},
		{"ConflictException", false},
		{"ValidationException", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := fakeAPIError{code: tt.code}
			if got := IsThrottle(err); got != tt.want {
				t.Errorf("IsThrottle(%s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestIsThrottleNonAPIError(t *testing.T) {
	if IsThrottle(errors.New("plain error")) {
		t.Error("IsThrottle should return false for a non-API error")
	}
}

func TestNewRetryerNotNil(t *testing.T) {
	if NewRetryer() == nil {
		t.Fatal("NewRetryer() returned nil")
	}
}
