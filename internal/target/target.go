// Package target expands a symbolic assignment target (account ID, OU,
// recursive OU, or organization root) into the set of active account IDs it
// denotes (§4.6).
package target

import (
	"context"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	organizationstypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"

	"github.com/nicholasgasior/ssopipe/internal/apierr"
	"github.com/nicholasgasior/ssopipe/internal/awssvc"
)

// accountIDPattern matches a literal 12-digit AWS account ID.
var accountIDPattern = regexp.MustCompile(`^\d{12}$`)

// Resolver expands symbolic targets against the AWS Organization reached
// through its injected clients — typically credentials obtained by
// assuming the organization management role (§6 --org_role).
type Resolver struct {
	listOUsForParent      awssvc.ListOrganizationalUnitsForParentAPI
	listAccountsForParent awssvc.ListAccountsForParentAPI
	listAccounts          awssvc.ListAccountsAPI
}

// New constructs a Resolver with the organizations API clients needed for
// OU descent and account enumeration.
func New(
	listOUsForParent awssvc.ListOrganizationalUnitsForParentAPI,
	listAccountsForParent awssvc.ListAccountsForParentAPI,
	listAccounts awssvc.ListAccountsAPI,
) *Resolver {
	return &Resolver{
		listOUsForParent:      listOUsForParent,
		listAccountsForParent: listAccountsForParent,
		listAccounts:          listAccounts,
	}
}

// Resolve expands a single symbolic target string into the set of active
// account IDs it denotes (§4.6 steps 1-5). An optional "<tag>:" prefix is
// stripped before the grammar is matched (§3 Symbolic target grammar).
func (r *Resolver) Resolve(ctx context.Context, rawTarget string) ([]string, error) {
	target := stripTagPrefix(rawTarget)

	switch {
	case accountIDPattern.MatchString(target):
		return []string{target}, nil

	case strings.HasPrefix(target, "ou-"):
		recursive := strings.HasSuffix(target, ":*")
		ouID := strings.TrimSuffix(target, ":*")
		if recursive {
			return r.descendOU(ctx, ouID)
		}
		return r.directChildAccounts(ctx, ouID)

	case target == "Root" || strings.HasPrefix(target, "r-"):
		return r.allActiveAccounts(ctx)

	default:
		return nil, &apierr.TargetResolutionError{
			Target: rawTarget,
			Reason: "does not match account ID, ou-* , Root, or r-* grammar",
		}
	}
}

// stripTagPrefix removes an optional leading "<tag>:" segment, per §3's
// note that resolvers strip the first colon-separated segment when present.
// Account IDs, "ou-*", "r-*", and "Root" never themselves contain a colon
// before the recursive-descent suffix, so a leading segment ending in ":"
// that is not itself part of the grammar is assumed to be a tag.
func stripTagPrefix(target string) string {
	if accountIDPattern.MatchString(target) ||
		strings.HasPrefix(target, "ou-") ||
		strings.HasPrefix(target, "r-") ||
		target == "Root" {
		return target
	}
	if idx := strings.Index(target, ":"); idx > 0 {
		rest := target[idx+1:]
		if accountIDPattern.MatchString(rest) ||
			strings.HasPrefix(rest, "ou-") ||
			strings.HasPrefix(rest, "r-") ||
			rest == "Root" {
			return rest
		}
	}
	return target
}

// directChildAccounts lists only the active accounts that are direct
// members of ouID (§4.6 step 3b).
func (r *Resolver) directChildAccounts(ctx context.Context, ouID string) ([]string, error) {
	accounts, err := r.listActiveAccountsForParent(ctx, ouID)
	if err != nil {
		return nil, &apierr.TargetResolutionError{Target: ouID, Reason: err.Error()}
	}
	return accounts, nil
}

// descendOU performs depth-first traversal of ouID's child OU tree,
// collecting active accounts at every level (§4.6 step 3a).
func (r *Resolver) descendOU(ctx context.Context, ouID string) ([]string, error) {
	var all []string

	accounts, err := r.listActiveAccountsForParent(ctx, ouID)
	if err != nil {
		return nil, &apierr.TargetResolutionError{Target: ouID + ":*", Reason: err.Error()}
	}
	all = append(all, accounts...)

	childOUs, err := awssvc.CollectPages(ctx, func(ctx context.Context, token string) ([]string, string, error) {
		var next *string
		if token != "" {
			next = aws.String(token)
		}
		out, err := r.listOUsForParent.ListOrganizationalUnitsForParent(ctx, &organizations.ListOrganizationalUnitsForParentInput{
			ParentId:  aws.String(ouID),
			NextToken: next,
		})
		if err != nil {
			return nil, "", err
		}
		ids := make([]string, 0, len(out.OrganizationalUnits))
		for _, ou := range out.OrganizationalUnits {
			ids = append(ids, aws.ToString(ou.Id))
		}
		return ids, aws.ToString(out.NextToken), nil
	})
	if err != nil {
		return nil, &apierr.TargetResolutionError{Target: ouID + ":*", Reason: err.Error()}
	}

	for _, childID := range childOUs {
		childAccounts, err := r.descendOU(ctx, childID)
		if err != nil {
			return nil, err
		}
		all = append(all, childAccounts...)
	}

	return all, nil
}

// allActiveAccounts lists every active account in the organization, used to
// resolve "Root" / "r-*" targets (§4.6 step 4).
func (r *Resolver) allActiveAccounts(ctx context.Context) ([]string, error) {
	accounts, err := awssvc.CollectPages(ctx, func(ctx context.Context, token string) ([]organizationstypes.Account, string, error) {
		var next *string
		if token != "" {
			next = aws.String(token)
		}
		out, err := r.listAccounts.ListAccounts(ctx, &organizations.ListAccountsInput{NextToken: next})
		if err != nil {
			return nil, "", err
		}
		return out.Accounts, aws.ToString(out.NextToken), nil
	})
	if err != nil {
		return nil, &apierr.TargetResolutionError{Target: "Root", Reason: err.Error()}
	}
	return filterActive(accounts), nil
}

// listActiveAccountsForParent lists the direct member accounts of parentID,
// filtered to ACTIVE status (§4.6 "only accounts with status ACTIVE are
// kept").
func (r *Resolver) listActiveAccountsForParent(ctx context.Context, parentID string) ([]string, error) {
	accounts, err := awssvc.CollectPages(ctx, func(ctx context.Context, token string) ([]organizationstypes.Account, string, error) {
		var next *string
		if token != "" {
			next = aws.String(token)
		}
		out, err := r.listAccountsForParent.ListAccountsForParent(ctx, &organizations.ListAccountsForParentInput{
			ParentId:  aws.String(parentID),
			NextToken: next,
		})
		if err != nil {
			return nil, "", err
		}
		return out.Accounts, aws.ToString(out.NextToken), nil
	})
	if err != nil {
		return nil, err
	}
	return filterActive(accounts), nil
}

func filterActive(accounts []organizationstypes.Account) []string {
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a.Status == organizationstypes.AccountStatusActive {
			ids = append(ids, aws.ToString(a.Id))
		}
	}
	return ids
}
