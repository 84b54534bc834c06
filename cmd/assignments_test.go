package cmd

import (
	"context"
	"testing"
)

func TestNewAssignmentsCommandHasApplySubcommand(t *testing.T) {
	cmd := newAssignmentsCommand()

	if cmd.Name() != "assignments" {
		t.Fatalf("Name() = %q, want assignments", cmd.Name())
	}

	found := false
	for _, sub := range cmd.Commands() {
		if sub.Name() == "apply" {
			found = true
		}
	}
	if !found {
		t.Error("expected 'assignments' command to have an 'apply' subcommand")
	}
}

func TestNewAssignmentsApplyCommandRegistersFlags(t *testing.T) {
	cmd := newAssignmentsApplyCommand()

	if cmd.Flags().Lookup("org-role") == nil {
		t.Error("expected --org-role flag to be registered")
	}
	if cmd.Flags().Lookup("mgmt-account") == nil {
		t.Error("expected --mgmt-account flag to be registered")
	}
}

func TestOrganizationsClientForRoleDefaultsWithoutRole(t *testing.T) {
	// Loading the default AWS config does not require credentials or
	// network access; it only fails on malformed shared config files,
	// which the test environment does not have.
	client, err := organizationsClientForRole(context.Background(), "")
	if err != nil {
		t.Fatalf("organizationsClientForRole(\"\") error: %v", err)
	}
	if client == nil {
		t.Fatal("expected a non-nil organizations client")
	}
}
