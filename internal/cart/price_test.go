package cart

import (
	"testing"
)

func TestItemPrice(t *testing.T) {
	item := testItem("item1", 10)

	if got := ItemPrice(item, nil); got != 10 {
		t.Errorf("ItemPrice with no modifiers = %v, want 10", got)
	}

	mods := SelectedModifiers{"size": {{ID: "large", ExtraPrice: 2}}}
	if got := ItemPrice(item, mods); got != 12 {
		t.Errorf("ItemPrice with extra 2 = %v, want 12", got)
	}

	// A modifier with no selected options contributes nothing.
	mods = SelectedModifiers{"size": {}}
	if got := ItemPrice(item, mods); got != 10 {
		t.Errorf("ItemPrice with optionless modifier = %v, want 10", got)
	}
}

func TestCartTotal(t *testing.T) {
	store := NewStore()

	twelve := testItem("item1", 10)
	mods := SelectedModifiers{"size": {{ID: "large", ExtraPrice: 2}}}
	store.Add(twelve, mods, "alice")
	store.Add(twelve, mods, "alice") // quantity 2 at price 12

	eight := testItem("item2", 8)
	store.Add(eight, nil, "alice") // quantity 1 at price 8

	if got := store.Total(); got != 32 {
		t.Errorf("Total = %v, want 32", got)
	}
}

func TestRoundCents(t *testing.T) {
	if got := RoundCents(0.1 + 0.2); got != 0.3 {
		t.Errorf("RoundCents(0.1+0.2) = %v, want 0.3", got)
	}
	if got := RoundCents(12.346); got != 12.35 {
		t.Errorf("RoundCents(12.346) = %v, want 12.35", got)
	}
}
