// Package grouping partitions line items into coarse keyword buckets before clustering.
package grouping

import (
	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/entity"
)

// BucketItems is one non-empty bucket and its items in input order.
type BucketItems struct {
	Bucket constants.Bucket
	Items  []entity.LineItem
}

// Groups is the ordered result of Group.
type Groups []BucketItems

// Group assigns every item to exactly one bucket. Buckets come out in priority order,
// empty buckets are omitted and items keep their relative order.
func Group(items []entity.LineItem) Groups {
	byBucket := make(map[constants.Bucket][]entity.LineItem)
	for _, it := range items {
		b := constants.ClassifyName(it.Name)
		byBucket[b] = append(byBucket[b], it)
	}

	out := make(Groups, 0, len(byBucket))
	for _, b := range constants.AllBuckets() {
		if members, ok := byBucket[b]; ok {
			out = append(out, BucketItems{Bucket: b, Items: members})
		}
	}
	return out
}

// Map returns the groups keyed by bucket name.
func (g Groups) Map() map[string][]entity.LineItem {
	m := make(map[string][]entity.LineItem, len(g))
	for _, bi := range g {
		m[string(bi.Bucket)] = bi.Items
	}
	return m
}

// Total counts the items across all buckets.
func (g Groups) Total() int {
	n := 0
	for _, bi := range g {
		n += len(bi.Items)
	}
	return n
}
