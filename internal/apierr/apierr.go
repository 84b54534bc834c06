// Package apierr defines the typed error taxonomy shared by every ssopipe
// reconciliation stage: a caller can distinguish a malformed template from a
// transient AWS throttle from a permanent AWS rejection without parsing
// error strings.
package apierr

import (
	"errors"
	"fmt"

	"github.com/nicholasgasior/ssopipe/internal/awssvc"
)

// TemplateError reports a malformed or invalid permission set / assignment
// template discovered before any AWS call is made.
type TemplateError struct {
	File   string
	Reason string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %s", e.File, e.Reason)
}

// TransientAPIError wraps an AWS SDK error that is safe to retry: a
// throttle, a service blip, or a momentary consistency lag.
type TransientAPIError struct {
	Op  string
	Err error
}

func (e *TransientAPIError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Op, e.Err)
}

func (e *TransientAPIError) Unwrap() error { return e.Err }

// PermanentAPIError wraps an AWS SDK error that will not succeed on retry:
// a validation failure, an access denial, or a resource that genuinely does
// not exist.
type PermanentAPIError struct {
	Op  string
	Err error
}

func (e *PermanentAPIError) Error() string {
	return fmt.Sprintf("%s: permanent: %v", e.Op, e.Err)
}

func (e *PermanentAPIError) Unwrap() error { return e.Err }

// PrincipalNotFound reports that an assignment template names a user or
// group that does not resolve in the identity store. This is a skip-and-
// continue condition, not a fatal error: it is logged and the rest of the
// pipeline continues.
type PrincipalNotFound struct {
	PrincipalType string // "USER" or "GROUP"
	Name          string
}

func (e *PrincipalNotFound) Error() string {
	return fmt.Sprintf("principal not found: %s %q", e.PrincipalType, e.Name)
}

// TargetResolutionError reports that an assignment template's target
// expression (a 12-digit account ID, "ou-*" or recursive "ou-*:*", "Root", or
// an "r-*" root ID) does not match that grammar or could not be resolved
// against the live AWS Organization.
type TargetResolutionError struct {
	Target string
	Reason string
}

func (e *TargetResolutionError) Error() string {
	return fmt.Sprintf("target %q: %s", e.Target, e.Reason)
}

// Classify wraps err from an AWS SDK call as either a TransientAPIError or a
// PermanentAPIError, based on whether the underlying error is a recognized
// throttle/server condition. op names the operation for error context.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if awssvc.IsThrottle(err) {
		return &TransientAPIError{Op: op, Err: err}
	}
	return &PermanentAPIError{Op: op, Err: err}
}

// IsTransient reports whether err is, or wraps, a TransientAPIError.
func IsTransient(err error) bool {
	var t *TransientAPIError
	return errors.As(err, &t)
}

// IsPermanent reports whether err is, or wraps, a PermanentAPIError.
func IsPermanent(err error) bool {
	var p *PermanentAPIError
	return errors.As(err, &p)
}
