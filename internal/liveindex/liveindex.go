// Package liveindex enumerates the live SSO tenant's Permission Sets and
// builds the name-to-ARN index that scopes reconciliation to pipeline-owned
// resources (§4.4).
package liveindex

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"

	"github.com/nicholasgasior/ssopipe/internal/apierr"
	"github.com/nicholasgasior/ssopipe/internal/awssvc"
	"github.com/nicholasgasior/ssopipe/internal/tags"
)

// Indexer discovers the SSO instance, lists every Permission Set, and
// filters to the subset carrying the ownership tag.
type Indexer struct {
	listInstances awssvc.ListSSOInstancesAPI
	listPermSets  awssvc.ListPermissionSetsAPI
	describePS    awssvc.DescribePermissionSetAPI
	listTags      awssvc.ListTagsForResourceAPI
	concurrency   int
}

// New constructs an Indexer. concurrency bounds the number of in-flight
// DescribePermissionSet/ListTagsForResource calls while listing; values
// less than 1 are treated as 1.
func New(
	listInstances awssvc.ListSSOInstancesAPI,
	listPermSets awssvc.ListPermissionSetsAPI,
	describePS awssvc.DescribePermissionSetAPI,
	listTags awssvc.ListTagsForResourceAPI,
	concurrency int,
) *Indexer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Indexer{
		listInstances: listInstances,
		listPermSets:  listPermSets,
		describePS:    describePS,
		listTags:      listTags,
		concurrency:   concurrency,
	}
}

// Instance discovers the account's SSO instance ARN and identity store ID,
// assuming a single instance per tenant (§6 Identity-store and SSO-instance
// discovery). instanceARN feeds C4/C5; identityStoreID feeds C7.
func (idx *Indexer) Instance(ctx context.Context) (instanceARN, identityStoreID string, err error) {
	out, err := idx.listInstances.ListInstances(ctx, &ssoadmin.ListInstancesInput{})
	if err != nil {
		return "", "", apierr.Classify("list SSO instances", err)
	}
	if len(out.Instances) == 0 {
		return "", "", fmt.Errorf("no IAM Identity Center instance found in this account")
	}
	inst := out.Instances[0]
	return aws.ToString(inst.InstanceArn), aws.ToString(inst.IdentityStoreId), nil
}

// InstanceARN discovers the account's SSO instance ARN. Kept as a thin
// wrapper around Instance for callers that only need the ARN (C4/C5).
func (idx *Indexer) InstanceARN(ctx context.Context) (string, error) {
	arn, _, err := idx.Instance(ctx)
	return arn, err
}

// Build lists every Permission Set in the instance, fetches its tags
// concurrently (bounded by idx.concurrency), and returns a name → ARN map
// containing only entries carrying the SSOPipeline ownership tag.
func (idx *Indexer) Build(ctx context.Context, instanceARN string) (map[string]string, error) {
	arns, err := awssvc.CollectPages(ctx, func(ctx context.Context, token string) ([]string, string, error) {
		var next *string
		if token != "" {
			next = aws.String(token)
		}
		out, err := idx.listPermSets.ListPermissionSets(ctx, &ssoadmin.ListPermissionSetsInput{
			InstanceArn: aws.String(instanceARN),
			NextToken:   next,
		})
		if err != nil {
			return nil, "", apierr.Classify("list permission sets", err)
		}
		return out.PermissionSets, aws.ToString(out.NextToken), nil
	})
	if err != nil {
		return nil, err
	}

	type result struct {
		name string
		arn  string
		err  error
	}

	sem := make(chan struct{}, idx.concurrency)
	results := make(chan result, len(arns))
	var wg sync.WaitGroup

	for _, arn := range arns {
		wg.Add(1)
		go func(arn string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			name, owned, err := idx.describeAndCheckOwnership(ctx, instanceARN, arn)
			if err != nil {
				results <- result{err: err}
				return
			}
			if owned {
				results <- result{name: name, arn: arn}
			} else {
				results <- result{}
			}
		}(arn)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	index := make(map[string]string)
	for r := range results {
		if r.err != nil {
			return nil, r.err
		}
		if r.name != "" {
			index[r.name] = r.arn
		}
	}

	return index, nil
}

// describeAndCheckOwnership fetches a Permission Set's name and tags, and
// reports whether it carries the ownership tag.
func (idx *Indexer) describeAndCheckOwnership(ctx context.Context, instanceARN, permSetARN string) (name string, owned bool, err error) {
	descOut, err := idx.describePS.DescribePermissionSet(ctx, &ssoadmin.DescribePermissionSetInput{
		InstanceArn:      aws.String(instanceARN),
		PermissionSetArn: aws.String(permSetARN),
	})
	if err != nil {
		return "", false, apierr.Classify(fmt.Sprintf("describe permission set %s", permSetARN), err)
	}
	if descOut.PermissionSet == nil {
		return "", false, nil
	}

	tagsOut, err := idx.listTags.ListTagsForResource(ctx, &ssoadmin.ListTagsForResourceInput{
		InstanceArn: aws.String(instanceARN),
		ResourceArn: aws.String(permSetARN),
	})
	if err != nil {
		return "", false, apierr.Classify(fmt.Sprintf("list tags for permission set %s", permSetARN), err)
	}

	return aws.ToString(descOut.PermissionSet.Name), tags.HasOwnershipTag(tagsOut.Tags), nil
}
