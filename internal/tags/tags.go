// Package tags provides the ownership tag schema and a fluent tag builder
// used to mark IAM Identity Center permission sets as managed by ssopipe.
//
// The live-state indexer (internal/liveindex) trusts only resources carrying
// this ownership tag; anything else in the SSO instance is left untouched by
// reconciliation, regardless of name collisions.
package tags

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ssoadmintypes "github.com/aws/aws-sdk-go-v2/service/ssoadmin/types"
)

// TagOwnership is the tag key applied to every permission set ssopipe
// manages. Its presence, not its value, marks ownership.
const TagOwnership = "SSOPipeline"

// TagBuilder constructs the ownership tag set applied to a permission set
// when it is first created.
type TagBuilder struct {
	managedBy string
}

// NewTagBuilder creates a TagBuilder. managedBy identifies the actor (CI
// pipeline name, operator identity) that created the resource, recorded for
// audit purposes alongside the ownership marker.
func NewTagBuilder(managedBy string) *TagBuilder {
	return &TagBuilder{managedBy: managedBy}
}

// Build produces the full ownership tag set for a CreatePermissionSet or
// TagResource call.
func (b *TagBuilder) Build() []ssoadmintypes.Tag {
	tagList := []ssoadmintypes.Tag{
		{Key: aws.String(TagOwnership), Value: aws.String("true")},
	}
	if b.managedBy != "" {
		tagList = append(tagList, ssoadmintypes.Tag{
			Key: aws.String("ssopipe:managed-by"), Value: aws.String(b.managedBy),
		})
	}
	return tagList
}

// HasOwnershipTag reports whether tagList carries the ssopipe ownership
// marker, identifying a permission set as eligible for reconciliation.
func HasOwnershipTag(tagList []ssoadmintypes.Tag) bool {
	for _, t := range tagList {
		if aws.ToString(t.Key) == TagOwnership {
			return true
		}
	}
	return false
}
