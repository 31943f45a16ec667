package menu

import (
	"testing"
	"time"

	"qrmenu/internal/models"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 6, 1, hour, minute, 0, 0, time.UTC)
}

func TestCurrentSlot_DaytimeWindow(t *testing.T) {
	slots := []models.Slot{
		{Name: "lunch", Start: "11:00", End: "16:00"},
		{Name: "dinner", Start: "18:00", End: "23:00"},
	}

	slot, ok := CurrentSlot(slots, at(12, 30))
	if !ok || slot.Name != "lunch" {
		t.Errorf("CurrentSlot(12:30) = %v, %v; want lunch", slot.Name, ok)
	}

	// End is exclusive.
	if _, ok := CurrentSlot(slots, at(16, 0)); ok {
		t.Error("CurrentSlot(16:00) matched lunch; [start,end) should exclude end")
	}

	if _, ok := CurrentSlot(slots, at(17, 0)); ok {
		t.Error("CurrentSlot(17:00) matched a slot; expected none")
	}
}

func TestCurrentSlot_OvernightWindow(t *testing.T) {
	slots := []models.Slot{{Name: "late night", Start: "22:00", End: "02:00"}}

	for _, tc := range []struct {
		hour, minute int
		want         bool
	}{
		{23, 30, true},
		{1, 0, true},
		{12, 0, false},
		{2, 0, false}, // end exclusive across midnight too
		{22, 0, true},
	} {
		_, ok := CurrentSlot(slots, at(tc.hour, tc.minute))
		if ok != tc.want {
			t.Errorf("CurrentSlot(%02d:%02d) = %v, want %v", tc.hour, tc.minute, ok, tc.want)
		}
	}
}

func TestCurrentSlot_SkipsMalformedEntries(t *testing.T) {
	slots := []models.Slot{
		{Name: "broken", Start: "25:99", End: "noon"},
		{Name: "lunch", Start: "11:00", End: "16:00"},
	}

	slot, ok := CurrentSlot(slots, at(12, 0))
	if !ok || slot.Name != "lunch" {
		t.Errorf("malformed slot should be skipped, got %v, %v", slot.Name, ok)
	}

	if _, ok := CurrentSlot([]models.Slot{{Name: "broken", Start: "x", End: "y"}}, at(12, 0)); ok {
		t.Error("only-malformed slot list should match nothing")
	}
}

func TestSortCategories(t *testing.T) {
	// Comparator fixture at 12:00: B active, D's next slot in 10 min, C's in
	// 30 min, A complementary.
	now := at(12, 0)
	categories := []models.Category{
		{Name: "A", Complementary: true},
		{Name: "B", Slots: []models.Slot{{Name: "lunch", Start: "11:00", End: "16:00"}}},
		{Name: "C", Slots: []models.Slot{{Name: "tea", Start: "12:30", End: "17:00"}}},
		{Name: "D", Slots: []models.Slot{{Name: "brunch", Start: "12:10", End: "14:00"}}},
	}

	SortCategories(categories, now)

	want := []string{"B", "D", "C", "A"}
	for i, name := range want {
		if categories[i].Name != name {
			t.Fatalf("position %d = %s, want %s (full order: %v)", i, categories[i].Name, name, names(categories))
		}
	}
}

func TestSortCategories_NoFutureSlotSortsLast(t *testing.T) {
	now := at(12, 0)
	morning := models.Category{Name: "morning", Slots: []models.Slot{{Start: "07:00", End: "11:00"}}}
	soon := models.Category{Name: "soon", Slots: []models.Slot{{Start: "13:00", End: "17:00"}}}
	categories := []models.Category{morning, soon}

	SortCategories(categories, now)

	if categories[0].Name != "soon" {
		t.Errorf("category with an upcoming slot should precede one with none today: %v", names(categories))
	}
}

func TestSortCategories_SortOrderFallback(t *testing.T) {
	two, five := 2, 5
	categories := []models.Category{
		{Name: "unordered"}, // default 9999
		{Name: "five", SortOrder: &five},
		{Name: "two", SortOrder: &two},
	}

	SortCategories(categories, at(12, 0))

	want := []string{"two", "five", "unordered"}
	for i, name := range want {
		if categories[i].Name != name {
			t.Fatalf("position %d = %s, want %s", i, categories[i].Name, name)
		}
	}
}

func names(categories []models.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.Name
	}
	return out
}
