package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/nicholasgasior/ssopipe/internal/apierr"
	"github.com/nicholasgasior/ssopipe/internal/model"
)

type mockPrincipals struct {
	ids map[string]string // "<type>:<name>" -> id
}

func (m *mockPrincipals) Resolve(ctx context.Context, name string, principalType model.PrincipalType) (string, error) {
	id, ok := m.ids[string(principalType)+":"+name]
	if !ok {
		return "", &apierr.PrincipalNotFound{PrincipalType: string(principalType), Name: name}
	}
	return id, nil
}

type mockTargets struct {
	accounts map[string][]string
	err      map[string]error
}

func (m *mockTargets) Resolve(ctx context.Context, rawTarget string) ([]string, error) {
	if err, ok := m.err[rawTarget]; ok {
		return nil, err
	}
	return m.accounts[rawTarget], nil
}

func TestExpandProducesCartesianProduct(t *testing.T) {
	principals := &mockPrincipals{ids: map[string]string{"USER:alice": "user-1"}}
	targets := &mockTargets{accounts: map[string][]string{
		"111111111111": {"111111111111"},
		"222222222222": {"222222222222"},
	}}
	arns := map[string]string{"Admin": "arn:aws:sso:::permissionSet/ssoins-1/ps-1"}
	e := New(principals, targets, arns, "999999999999", nil)

	assignments := []model.Assignment{
		{SID: "sid1", PrincipalType: model.PrincipalUser, PrincipalId: "alice", PermissionSetName: "Admin", Target: []string{"111111111111", "222222222222"}},
	}

	out, err := e.Expand(context.Background(), assignments)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Expand() = %d records, want 2", len(out))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	if out[0].Target != "111111111111" || out[1].Target != "222222222222" {
		t.Errorf("unexpected targets: %+v", out)
	}
	for _, r := range out {
		if r.PrincipalId != "user-1" {
			t.Errorf("PrincipalId = %q, want user-1", r.PrincipalId)
		}
		if r.PermissionSetName != "arn:aws:sso:::permissionSet/ssoins-1/ps-1" {
			t.Errorf("PermissionSetName = %q, want resolved ARN", r.PermissionSetName)
		}
		if want := r.Target + "aliceUSERAdmin"; r.Sid != want {
			t.Errorf("Sid = %q, want unseparated concatenation %s", r.Sid, want)
		}
	}
}

func TestExpandSkipsUnresolvedPrincipal(t *testing.T) {
	principals := &mockPrincipals{ids: map[string]string{}}
	targets := &mockTargets{accounts: map[string][]string{"111111111111": {"111111111111"}}}
	arns := map[string]string{"Admin": "arn:aws:sso:::permissionSet/ssoins-1/ps-1"}
	e := New(principals, targets, arns, "999999999999", nil)

	assignments := []model.Assignment{
		{SID: "sid1", PrincipalType: model.PrincipalUser, PrincipalId: "ghost", PermissionSetName: "Admin", Target: []string{"111111111111"}},
	}

	out, err := e.Expand(context.Background(), assignments)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Expand() = %d records, want 0 (principal unresolved)", len(out))
	}
}

func TestExpandExcludesManagementAccount(t *testing.T) {
	principals := &mockPrincipals{ids: map[string]string{"USER:alice": "user-1"}}
	targets := &mockTargets{accounts: map[string][]string{
		"Root": {"111111111111", "999999999999"},
	}}
	arns := map[string]string{"Admin": "arn:aws:sso:::permissionSet/ssoins-1/ps-1"}
	e := New(principals, targets, arns, "999999999999", nil)

	assignments := []model.Assignment{
		{SID: "sid1", PrincipalType: model.PrincipalUser, PrincipalId: "alice", PermissionSetName: "Admin", Target: []string{"Root"}},
	}

	out, err := e.Expand(context.Background(), assignments)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if len(out) != 1 || out[0].Target != "111111111111" {
		t.Errorf("Expand() = %+v, want only the non-management account", out)
	}
}

func TestExpandFatalOnMissingPermissionSet(t *testing.T) {
	principals := &mockPrincipals{ids: map[string]string{"USER:alice": "user-1"}}
	targets := &mockTargets{accounts: map[string][]string{"111111111111": {"111111111111"}}}
	e := New(principals, targets, map[string]string{}, "999999999999", nil)

	assignments := []model.Assignment{
		{SID: "sid1", PrincipalType: model.PrincipalUser, PrincipalId: "alice", PermissionSetName: "Missing", Target: []string{"111111111111"}},
	}

	_, err := e.Expand(context.Background(), assignments)
	if err == nil {
		t.Fatal("expected an error when the permission set is absent from the live index")
	}
}

func TestExpandDedupesByFullRecordEquality(t *testing.T) {
	principals := &mockPrincipals{ids: map[string]string{"USER:alice": "user-1"}}
	targets := &mockTargets{accounts: map[string][]string{
		"111111111111": {"111111111111"},
	}}
	arns := map[string]string{"Admin": "arn:aws:sso:::permissionSet/ssoins-1/ps-1"}
	e := New(principals, targets, arns, "999999999999", nil)

	assignments := []model.Assignment{
		{SID: "sid1", PrincipalType: model.PrincipalUser, PrincipalId: "alice", PermissionSetName: "Admin", Target: []string{"111111111111", "111111111111"}},
	}

	out, err := e.Expand(context.Background(), assignments)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("Expand() = %d records, want 1 (deduplicated)", len(out))
	}
}

func TestExpandSkipsWholeAssignmentWhenAnyTargetFailsToResolve(t *testing.T) {
	principals := &mockPrincipals{ids: map[string]string{"USER:alice": "user-1", "USER:bob": "user-2"}}
	targets := &mockTargets{
		accounts: map[string][]string{"222222222222": {"222222222222"}},
		err:      map[string]error{"ou-bad": errors.New("no such OU")},
	}
	arns := map[string]string{"Admin": "arn:aws:sso:::permissionSet/ssoins-1/ps-1"}
	e := New(principals, targets, arns, "999999999999", nil)

	assignments := []model.Assignment{
		{SID: "sid1", PrincipalType: model.PrincipalUser, PrincipalId: "alice", PermissionSetName: "Admin", Target: []string{"ou-bad", "222222222222"}},
		{SID: "sid2", PrincipalType: model.PrincipalUser, PrincipalId: "bob", PermissionSetName: "Admin", Target: []string{"222222222222"}},
	}

	out, err := e.Expand(context.Background(), assignments)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	// sid1 has one bad target alongside a resolvable one; the whole
	// assignment is dropped, not just the bad target. sid2 is unaffected.
	if len(out) != 1 || out[0].PrincipalId != "user-2" {
		t.Errorf("Expand() = %+v, want only sid2's record (sid1 fully skipped)", out)
	}
}

func TestWriteFileProducesFlatJSONArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assignments.json")

	records := []model.ResolvedAssignment{
		{Sid: "111111111111aliceUSERAdmin", PrincipalId: "user-1", PrincipalType: model.PrincipalUser, PermissionSetName: "arn:aws:sso:::permissionSet/ssoins-1/ps-1", Target: "111111111111"},
	}

	if err := WriteFile(path, records); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}

	var decoded []model.ResolvedAssignment
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("expected a flat top-level JSON array, got unmarshal error: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Target != "111111111111" {
		t.Errorf("decoded = %+v, want the single written record", decoded)
	}
}

func TestWriteFileEmptyProducesEmptyArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assignments.json")

	if err := WriteFile(path, nil); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("WriteFile(nil) wrote %q, want []", string(data))
	}
}
