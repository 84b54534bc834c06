package awssvc

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/identitystore"
)

// ListUsersAPI resolves a principal user's user name to its identity store
// user ID via an attribute filter.
type ListUsersAPI interface {
	ListUsers(ctx context.Context, params *identitystore.ListUsersInput, optFns ...func(*identitystore.Options)) (*identitystore.ListUsersOutput, error)
}

// ListGroupsAPI resolves a principal group's display name to its identity
// store group ID via an attribute filter.
type ListGroupsAPI interface {
	ListGroups(ctx context.Context, params *identitystore.ListGroupsInput, optFns ...func(*identitystore.Options)) (*identitystore.ListGroupsOutput, error)
}

var (
	_ ListUsersAPI  = (*identitystore.Client)(nil)
	_ ListGroupsAPI = (*identitystore.Client)(nil)
)
