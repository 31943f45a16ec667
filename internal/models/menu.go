package models

import (
	"fmt"
)

// MenuItem represents a dish on the menu. Items are created and updated by
// restaurant staff out-of-band; this service treats them as read-only.
type MenuItem struct {
	ID          string `gorm:"primary_key" json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string `json:"image_url"`
	Available   bool   `json:"available"`
	Recommended bool   `json:"recommended"`

	Categories []Category `gorm:"many2many:menu_item_categories;" json:"categories,omitempty"`
	DietTags   []DietTag  `gorm:"many2many:menu_item_diet_tags;" json:"diet_tags,omitempty"`
	Allergens  []Allergen `gorm:"many2many:menu_item_allergens;" json:"allergens,omitempty"`
	Modifiers  []Modifier `gorm:"foreignkey:MenuItemID" json:"modifiers,omitempty"`
}

// Modifier represents a configurable aspect of a menu item, such as a choice
// of sides or extra toppings.
type Modifier struct {
	ID         string `gorm:"primary_key" json:"id"`
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Required   bool   `json:"required"`
	MultiSelect bool  `json:"multi_select"`

	Options []ModifierOption `gorm:"foreignkey:ModifierID" json:"options,omitempty"`
}

// ModifierOption is one selectable option within a modifier. An option may
// substitute another menu item entirely, in which case SubstituteItemID is set.
type ModifierOption struct {
	ID               string  `gorm:"primary_key" json:"id"`
	ModifierID       string  `json:"modifier_id"`
	Name             string  `json:"name"`
	ExtraPrice       float64 `json:"extra_price"`
	Default          bool    `json:"default"`
	SubstituteItemID string  `json:"substitute_item_id,omitempty"`

	Allergens []Allergen `gorm:"many2many:modifier_option_allergens;" json:"allergens,omitempty"`
}

// Allergen represents a food allergen
type Allergen struct {
	ID   uint   `gorm:"primary_key" json:"id"`
	Name string `gorm:"unique_index" json:"name"`
}

// DietTag classifies an item by diet (vegan, halal, gluten-free, ...)
type DietTag struct {
	ID   uint   `gorm:"primary_key" json:"id"`
	Name string `gorm:"unique_index" json:"name"`
}

// Category groups menu items. Complementary categories (side dishes, sauces)
// always sort after regular ones.
type Category struct {
	ID            uint   `gorm:"primary_key" json:"id"`
	Name          string `json:"name"`
	SortOrder     *int   `json:"sort_order,omitempty"`
	Complementary bool   `json:"complementary"`

	Slots []Slot `gorm:"many2many:category_slots;" json:"slots,omitempty"`
}

// Slot is a named meal period. Start and End are "HH:MM" clock times; an End
// earlier than Start encodes a window that wraps past midnight.
type Slot struct {
	ID    uint   `gorm:"primary_key" json:"id"`
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// ValidateMenuItem validates a menu item
func ValidateMenuItem(item *MenuItem) error {
	if item.ID == "" {
		return fmt.Errorf("menu item id is required")
	}
	if item.Name == "" {
		return fmt.Errorf("menu item name is required")
	}
	if item.Price < 0 {
		return fmt.Errorf("menu item price must not be negative")
	}
	return nil
}

// HasAllergen checks if the item contains a specific allergen
func (mi *MenuItem) HasAllergen(name string) bool {
	for _, alg := range mi.Allergens {
		if alg.Name == name {
			return true
		}
	}
	return false
}

// HasDietTag checks if the item carries a specific diet tag
func (mi *MenuItem) HasDietTag(name string) bool {
	for _, tag := range mi.DietTags {
		if tag.Name == name {
			return true
		}
	}
	return false
}

// IsInCategory checks if the item belongs to a specific category
func (mi *MenuItem) IsInCategory(categoryID uint) bool {
	for _, cat := range mi.Categories {
		if cat.ID == categoryID {
			return true
		}
	}
	return false
}

// EffectiveSortOrder returns the category's explicit sort order, or the
// default 9999 when none was configured.
func (c *Category) EffectiveSortOrder() int {
	if c.SortOrder == nil {
		return 9999
	}
	return *c.SortOrder
}
