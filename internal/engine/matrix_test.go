package engine

import (
	"reflect"
	"testing"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

func sampleLog() []domain.Interaction {
	return []domain.Interaction{
		{UserID: 1, ProductID: 10, Type: domain.InteractionView},
		{UserID: 1, ProductID: 10, Type: domain.InteractionView},
		{UserID: 1, ProductID: 20, Type: domain.InteractionPurchase},
		{UserID: 2, ProductID: 10, Type: domain.InteractionCart},
		{UserID: 3, ProductID: 30, Type: domain.InteractionWishlist},
	}
}

func TestInteractionWeightsAccumulate(t *testing.T) {
	m := BuildInteractionMatrix(sampleLog())

	// Two views accumulate additively.
	if got := m.UserItems(1)[10]; got != 2 {
		t.Errorf("expected weight 2 for repeated views, got %f", got)
	}
	if got := m.UserItems(1)[20]; got != 4 {
		t.Errorf("expected purchase weight 4, got %f", got)
	}
	if got := m.ItemUsers(10)[2]; got != 2 {
		t.Errorf("expected cart weight 2, got %f", got)
	}
	if got := m.UserItems(3)[30]; got != 3 {
		t.Errorf("expected wishlist weight 3, got %f", got)
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	a := BuildInteractionMatrix(sampleLog())
	b := BuildInteractionMatrix(sampleLog())
	if !reflect.DeepEqual(a, b) {
		t.Error("rebuilding from the same log must produce identical matrices")
	}
}

func TestEmptyRowsAndColumns(t *testing.T) {
	m := BuildInteractionMatrix(sampleLog())

	if items := m.UserItems(99); len(items) != 0 {
		t.Errorf("unknown user should have an empty row, got %v", items)
	}
	if users := m.ItemUsers(99); len(users) != 0 {
		t.Errorf("unknown item should have an empty column, got %v", users)
	}
	if n := m.DistinctUsers(99); n != 0 {
		t.Errorf("expected 0 distinct users, got %d", n)
	}
}

func TestDistinctUsers(t *testing.T) {
	m := BuildInteractionMatrix(sampleLog())
	if n := m.DistinctUsers(10); n != 2 {
		t.Errorf("expected 2 distinct users for item 10, got %d", n)
	}
}

func TestItemsSorted(t *testing.T) {
	items := BuildInteractionMatrix(sampleLog()).Items()
	want := []int64{10, 20, 30}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("expected %v, got %v", want, items)
	}
}

func TestColumnCosine(t *testing.T) {
	m := BuildInteractionMatrix([]domain.Interaction{
		{UserID: 1, ProductID: 1, Type: domain.InteractionView},
		{UserID: 1, ProductID: 2, Type: domain.InteractionView},
		{UserID: 2, ProductID: 1, Type: domain.InteractionView},
		{UserID: 2, ProductID: 2, Type: domain.InteractionView},
	})
	if got := columnCosine(m.ItemUsers(1), m.ItemUsers(2)); got < 0.999 {
		t.Errorf("identical columns should have cosine 1, got %f", got)
	}
	if got := columnCosine(m.ItemUsers(1), nil); got != 0 {
		t.Errorf("empty column should yield 0, got %f", got)
	}
}
