package ports

import "github.com/rbroggi/wasteroute/internal/core/model"

// OrderingPolicy computes a visitation order for a set of collection requests.
//
// Order must return a permutation of [0, len(items)): element i of the result is the index
// in items of the i-th stop.
type OrderingPolicy interface {
	Order(items []model.CollectionRequest) []int
}
