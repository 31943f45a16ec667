package cart

import (
	"math"

	"qrmenu/internal/models"
)

// ItemPrice returns the price of one unit: the item's base price plus the
// extra price of every selected modifier option. A modifier with no selected
// options contributes nothing.
func ItemPrice(item models.MenuItem, modifiers SelectedModifiers) float64 {
	price := item.Price
	for _, options := range modifiers {
		for _, opt := range options {
			price += opt.ExtraPrice
		}
	}
	return price
}

// LineTotal returns the line's price: unit price times quantity.
func LineTotal(line LineItem) float64 {
	return ItemPrice(line.Item, line.Modifiers) * float64(line.Quantity)
}

// Total returns the cart total across all lines. Totals are independent of
// line ordering.
func (s *Store) Total() float64 {
	total := 0.0
	for _, line := range s.Lines() {
		total += LineTotal(line)
	}
	return total
}

// RoundCents rounds to two decimal places. Display formatting only; internal
// arithmetic stays in full float64 precision.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
