package awssvc

import "context"

// PageFetcher fetches one page of results given the previous page's next
// token (empty on the first call) and returns the page's items, the next
// token ("" when there are no more pages), and any error.
type PageFetcher[T any] func(ctx context.Context, nextToken string) (items []T, nextToken2 string, err error)

// CollectPages drives a PageFetcher to exhaustion and returns every item
// across every page. It centralizes the manual NextToken loop that recurs
// across every AWS SDK list operation used by ssopipe (ListPermissionSets,
// ListManagedPoliciesInPermissionSet, ListOrganizationalUnitsForParent, …) so each
// caller writes the loop once, here, instead of per call site.
func CollectPages[T any](ctx context.Context, fetch PageFetcher[T]) ([]T, error) {
	var all []T
	token := ""
	for {
		items, next, err := fetch(ctx, token)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}
