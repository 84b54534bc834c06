// Package principal resolves a (name, type) pair to an identity-store
// principal ID, memoizing lookups for the duration of a run (§4.7).
package principal

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/identitystore"
	identitystoretypes "github.com/aws/aws-sdk-go-v2/service/identitystore/types"

	"github.com/nicholasgasior/ssopipe/internal/apierr"
	"github.com/nicholasgasior/ssopipe/internal/awssvc"
	"github.com/nicholasgasior/ssopipe/internal/model"
)

// Resolver looks up identity-store principal IDs by (name, type), caching
// results across the whole run via a mutex-guarded map (§5 Shared resources).
type Resolver struct {
	listUsers       awssvc.ListUsersAPI
	listGroups      awssvc.ListGroupsAPI
	identityStoreID string

	mu    sync.Mutex
	cache map[string]string // cache key: "<type>:<name>" -> principal ID
}

// New constructs a Resolver scoped to a single identity store.
func New(listUsers awssvc.ListUsersAPI, listGroups awssvc.ListGroupsAPI, identityStoreID string) *Resolver {
	return &Resolver{
		listUsers:       listUsers,
		listGroups:      listGroups,
		identityStoreID: identityStoreID,
		cache:           make(map[string]string),
	}
}

// Resolve maps (name, principalType) to its identity-store ID. A miss
// returns *apierr.PrincipalNotFound, a skip-and-continue condition the
// caller is expected to log rather than treat as fatal (§4.7, §7).
func (r *Resolver) Resolve(ctx context.Context, name string, principalType model.PrincipalType) (string, error) {
	key := string(principalType) + ":" + name

	r.mu.Lock()
	if id, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	id, err := r.lookup(ctx, name, principalType)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[key] = id
	r.mu.Unlock()

	return id, nil
}

func (r *Resolver) lookup(ctx context.Context, name string, principalType model.PrincipalType) (string, error) {
	switch principalType {
	case model.PrincipalUser:
		return r.lookupUser(ctx, name)
	case model.PrincipalGroup:
		return r.lookupGroup(ctx, name)
	default:
		return "", fmt.Errorf("unknown principal type %q", principalType)
	}
}

// lookupUser queries the identity store with a UserName attribute filter
// and returns the first result's ID (§4.7).
func (r *Resolver) lookupUser(ctx context.Context, name string) (string, error) {
	out, err := r.listUsers.ListUsers(ctx, &identitystore.ListUsersInput{
		IdentityStoreId: aws.String(r.identityStoreID),
		Filters: []identitystoretypes.Filter{
			{AttributePath: aws.String("UserName"), AttributeValue: aws.String(name)},
		},
	})
	if err != nil {
		return "", apierr.Classify("list users", err)
	}
	if len(out.Users) == 0 {
		return "", &apierr.PrincipalNotFound{PrincipalType: "USER", Name: name}
	}
	return aws.ToString(out.Users[0].UserId), nil
}

// lookupGroup queries the identity store with a DisplayName attribute
// filter and returns the first result's ID (§4.7).
func (r *Resolver) lookupGroup(ctx context.Context, name string) (string, error) {
	out, err := r.listGroups.ListGroups(ctx, &identitystore.ListGroupsInput{
		IdentityStoreId: aws.String(r.identityStoreID),
		Filters: []identitystoretypes.Filter{
			{AttributePath: aws.String("DisplayName"), AttributeValue: aws.String(name)},
		},
	})
	if err != nil {
		return "", apierr.Classify("list groups", err)
	}
	if len(out.Groups) == 0 {
		return "", &apierr.PrincipalNotFound{PrincipalType: "GROUP", Name: name}
	}
	return aws.ToString(out.Groups[0].GroupId), nil
}
