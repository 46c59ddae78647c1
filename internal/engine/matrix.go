package engine

import (
	"math"
	"sort"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

// InteractionMatrix is a sparse user x item matrix of accumulated interaction
// weights. Rebuilding from the same log is idempotent.
type InteractionMatrix struct {
	byUser map[int64]map[int64]float64
	byItem map[int64]map[int64]float64
}

// BuildInteractionMatrix aggregates the interaction log. Repeated
// interactions for the same (user, item) pair accumulate additively.
func BuildInteractionMatrix(interactions []domain.Interaction) *InteractionMatrix {
	m := &InteractionMatrix{
		byUser: make(map[int64]map[int64]float64),
		byItem: make(map[int64]map[int64]float64),
	}
	for _, in := range interactions {
		w := in.Type.Weight()
		row := m.byUser[in.UserID]
		if row == nil {
			row = make(map[int64]float64)
			m.byUser[in.UserID] = row
		}
		row[in.ProductID] += w

		col := m.byItem[in.ProductID]
		if col == nil {
			col = make(map[int64]float64)
			m.byItem[in.ProductID] = col
		}
		col[in.UserID] += w
	}
	return m
}

// UserItems returns the weighted item row for a user. Missing users yield an
// empty row.
func (m *InteractionMatrix) UserItems(userID int64) map[int64]float64 {
	return m.byUser[userID]
}

// ItemUsers returns the weighted user column for an item.
func (m *InteractionMatrix) ItemUsers(productID int64) map[int64]float64 {
	return m.byItem[productID]
}

// DistinctUsers counts the distinct users who interacted with an item.
func (m *InteractionMatrix) DistinctUsers(productID int64) int {
	return len(m.byItem[productID])
}

// Items returns all item ids present in the matrix in ascending order.
func (m *InteractionMatrix) Items() []int64 {
	ids := make([]int64, 0, len(m.byItem))
	for id := range m.byItem {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// columnCosine is the cosine similarity between two item columns.
func columnCosine(a, b map[int64]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for user, wa := range a {
		if wb, ok := b[user]; ok {
			dot += wa * wb
		}
	}
	if dot == 0 {
		return 0
	}
	var na, nb float64
	for _, w := range a {
		na += w * w
	}
	for _, w := range b {
		nb += w * w
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
