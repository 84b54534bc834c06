package awssvc

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/organizations"
)

// ListRootsAPI enumerates the root(s) of an AWS Organization. Target
// resolution does not call it: recursive OU descent starts from the OU named
// in the target, and "Root" / "r-*" targets are expanded via ListAccounts.
type ListRootsAPI interface {
	ListRoots(ctx context.Context, params *organizations.ListRootsInput, optFns ...func(*organizations.Options)) (*organizations.ListRootsOutput, error)
}

// ListOrganizationalUnitsForParentAPI lists the direct child OUs of a given
// parent (root or OU), used for the depth-first descent over the OU tree.
type ListOrganizationalUnitsForParentAPI interface {
	ListOrganizationalUnitsForParent(ctx context.Context, params *organizations.ListOrganizationalUnitsForParentInput, optFns ...func(*organizations.Options)) (*organizations.ListOrganizationalUnitsForParentOutput, error)
}

// ListAccountsForParentAPI lists the direct member accounts of a given
// parent (root or OU).
type ListAccountsForParentAPI interface {
	ListAccountsForParent(ctx context.Context, params *organizations.ListAccountsForParentInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsForParentOutput, error)
}

// ListAccountsAPI lists every account in the organization, used to resolve
// the "Root" / "r-*" (all accounts) assignment targets.
type ListAccountsAPI interface {
	ListAccounts(ctx context.Context, params *organizations.ListAccountsInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error)
}

var (
	_ ListRootsAPI                            = (*organizations.Client)(nil)
	_ ListOrganizationalUnitsForParentAPI      = (*organizations.Client)(nil)
	_ ListAccountsForParentAPI                 = (*organizations.Client)(nil)
	_ ListAccountsAPI                          = (*organizations.Client)(nil)
)
