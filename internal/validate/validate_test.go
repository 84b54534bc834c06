package validate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/accessanalyzer"
	accessanalyzertypes "github.com/aws/aws-sdk-go-v2/service/accessanalyzer/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/nicholasgasior/ssopipe/internal/apierr"
	"github.com/nicholasgasior/ssopipe/internal/model"
)

type mockValidatePolicy struct {
	out *accessanalyzer.ValidatePolicyOutput
	err error
}

func (m *mockValidatePolicy) ValidatePolicy(ctx context.Context, params *accessanalyzer.ValidatePolicyInput, optFns ...func(*accessanalyzer.Options)) (*accessanalyzer.ValidatePolicyOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.out != nil {
		return m.out, nil
	}
	return &accessanalyzer.ValidatePolicyOutput{}, nil
}

type mockGetPolicy struct {
	known map[string]bool
}

func (m *mockGetPolicy) GetPolicy(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error) {
	if m.known[aws.ToString(params.PolicyArn)] {
		return &iam.GetPolicyOutput{}, nil
	}
	return nil, errors.New("NoSuchEntity: policy does not exist")
}

func readOnlyPS() model.PermissionSet {
	return model.PermissionSet{
		Name:            "ReadOnly",
		SourceFile:      "readonly.json",
		ManagedPolicies: []string{"arn:aws:iam::aws:policy/ReadOnlyAccess"},
	}
}

func TestRunPassesCleanCatalog(t *testing.T) {
	v := New(&mockValidatePolicy{}, &mockGetPolicy{known: map[string]bool{
		"arn:aws:iam::aws:policy/ReadOnlyAccess": true,
	}}, nil)

	err := v.Run(context.Background(), []model.PermissionSet{readOnlyPS()}, nil)
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
}

func TestRunRejectsDuplicatePermissionSetNames(t *testing.T) {
	v := New(&mockValidatePolicy{}, &mockGetPolicy{}, nil)

	ps := []model.PermissionSet{
		{Name: "Admin", SourceFile: "a.json"},
		{Name: "Admin", SourceFile: "b.json"},
	}

	err := v.Run(context.Background(), ps, nil)
	var tmplErr *apierr.TemplateError
	if !errors.As(err, &tmplErr) {
		t.Fatalf("expected *apierr.TemplateError, got %v", err)
	}
}

func TestRunRejectsDuplicateSIDs(t *testing.T) {
	v := New(&mockValidatePolicy{}, &mockGetPolicy{}, nil)

	assignments := []model.Assignment{
		{SID: "alpha", SourceFile: "a.json"},
		{SID: "alpha", SourceFile: "b.json"},
	}

	err := v.Run(context.Background(), nil, assignments)
	var tmplErr *apierr.TemplateError
	if !errors.As(err, &tmplErr) {
		t.Fatalf("expected *apierr.TemplateError, got %v", err)
	}
}

func TestRunRejectsErrorFindingCustomPolicy(t *testing.T) {
	v := New(&mockValidatePolicy{
		out: &accessanalyzer.ValidatePolicyOutput{
			Findings: []accessanalyzertypes.ValidatePolicyFinding{
				{FindingType: accessanalyzertypes.ValidatePolicyFindingTypeError, FindingDetails: aws.String("overly permissive")},
			},
		},
	}, &mockGetPolicy{}, nil)

	ps := []model.PermissionSet{{Name: "Bad", SourceFile: "bad.json", CustomPolicy: json.RawMessage(`{"Version":"2012-10-17"}`)}}

	err := v.Run(context.Background(), ps, nil)
	var tmplErr *apierr.TemplateError
	if !errors.As(err, &tmplErr) {
		t.Fatalf("expected *apierr.TemplateError, got %v", err)
	}
}

func TestRunAllowsWarningFindingCustomPolicy(t *testing.T) {
	v := New(&mockValidatePolicy{
		out: &accessanalyzer.ValidatePolicyOutput{
			Findings: []accessanalyzertypes.ValidatePolicyFinding{
				{FindingType: accessanalyzertypes.ValidatePolicyFindingTypeWarning, FindingDetails: aws.String("consider scoping further")},
			},
		},
	}, &mockGetPolicy{known: map[string]bool{}}, nil)

	ps := []model.PermissionSet{{Name: "OK", SourceFile: "ok.json", CustomPolicy: json.RawMessage(`{"Version":"2012-10-17"}`)}}

	if err := v.Run(context.Background(), ps, nil); err != nil {
		t.Fatalf("Run() unexpected error for WARNING finding: %v", err)
	}
}

func TestRunRejectsUnresolvableManagedPolicy(t *testing.T) {
	v := New(&mockValidatePolicy{}, &mockGetPolicy{known: map[string]bool{}}, nil)

	ps := []model.PermissionSet{readOnlyPS()}

	err := v.Run(context.Background(), ps, nil)
	var tmplErr *apierr.TemplateError
	if !errors.As(err, &tmplErr) {
		t.Fatalf("expected *apierr.TemplateError, got %v", err)
	}
}

func TestRunRejectsARNShapedCustomerBoundary(t *testing.T) {
	v := New(&mockValidatePolicy{}, &mockGetPolicy{known: map[string]bool{}}, nil)

	ps := []model.PermissionSet{{
		Name:       "Bounded",
		SourceFile: "bounded.json",
		PermissionBoundary: &model.PermissionBoundary{
			PolicyType: model.PermissionBoundaryCustomer,
			Policy:     "arn:aws:iam::123456789012:policy/my-boundary",
		},
	}}

	err := v.Run(context.Background(), ps, nil)
	var tmplErr *apierr.TemplateError
	if !errors.As(err, &tmplErr) {
		t.Fatalf("expected *apierr.TemplateError, got %v", err)
	}
}

func TestRunAllowsCustomerBoundaryByName(t *testing.T) {
	v := New(&mockValidatePolicy{}, &mockGetPolicy{known: map[string]bool{}}, nil)

	ps := []model.PermissionSet{{
		Name:       "Bounded",
		SourceFile: "bounded.json",
		PermissionBoundary: &model.PermissionBoundary{
			PolicyType: model.PermissionBoundaryCustomer,
			Policy:     "my-boundary-name",
		},
	}}

	if err := v.Run(context.Background(), ps, nil); err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
}

func TestRunPropagatesValidatePolicyAPIError(t *testing.T) {
	v := New(&mockValidatePolicy{err: errors.New("boom")}, &mockGetPolicy{}, nil)

	ps := []model.PermissionSet{{Name: "X", SourceFile: "x.json", CustomPolicy: json.RawMessage(`{}`)}}

	err := v.Run(context.Background(), ps, nil)
	if err == nil {
		t.Fatal("expected error when ValidatePolicy call fails")
	}
}
