package domain

import "time"

type InteractionType string

const (
	InteractionView     InteractionType = "view"
	InteractionCart     InteractionType = "cart"
	InteractionWishlist InteractionType = "wishlist"
	InteractionPurchase InteractionType = "purchase"
)

// Weight maps an interaction type to its contribution in the user-item
// matrix. Unknown types count as a view.
func (t InteractionType) Weight() float64 {
	switch t {
	case InteractionPurchase:
		return 4
	case InteractionWishlist:
		return 3
	case InteractionCart:
		return 2
	default:
		return 1
	}
}

// Interaction is one row of the append-only event log. The engine never
// mutates or deletes these.
type Interaction struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	ProductID int64           `json:"product_id"`
	Type      InteractionType `json:"interaction_type"`
	CreatedAt time.Time       `json:"created_at"`
}
