// Package ordering holds the visitation-order policies for collection routes.
package ordering

import (
	"sort"

	"github.com/rbroggi/wasteroute/internal/core/model"
)

// ByAddress orders stops by pickup address, byte-wise and case-sensitive.
// Equal addresses keep their input order. It ignores geography entirely.
type ByAddress struct{}

// Order implements ports.OrderingPolicy.
func (ByAddress) Order(items []model.CollectionRequest) []int {
	order := model.IdentityOrder(len(items))
	sort.SliceStable(order, func(i, j int) bool {
		return items[order[i]].PickupLocation.Address < items[order[j]].PickupLocation.Address
	})
	return order
}
