package storage

import (
	"fmt"

	"github.com/jinzhu/gorm"

	"qrmenu/internal/models"
)

// MenuRepo provides the read-only views of the menu catalogue: items,
// categories and slots. Staff maintain these tables out-of-band.
type MenuRepo struct {
	db *gorm.DB
}

// NewMenuRepo creates a menu repo.
func NewMenuRepo(db *gorm.DB) *MenuRepo {
	return &MenuRepo{db: db}
}

// ListItems returns all available menu items with modifiers, categories,
// tags and allergens preloaded.
func (r *MenuRepo) ListItems() ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.
		Preload("Modifiers").
		Preload("Modifiers.Options").
		Preload("Categories").
		Preload("DietTags").
		Preload("Allergens").
		Where("available = ?", true).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("storage: list menu items: %w", err)
	}
	return items, nil
}

// GetItem returns one menu item by id, with associations preloaded.
func (r *MenuRepo) GetItem(id string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.
		Preload("Modifiers").
		Preload("Modifiers.Options").
		Preload("Categories").
		Preload("DietTags").
		Preload("Allergens").
		Where("id = ?", id).
		First(&item).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrRowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get menu item %s: %w", id, err)
	}
	return &item, nil
}

// ListCategories returns all categories with their slots preloaded.
func (r *MenuRepo) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Preload("Slots").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("storage: list categories: %w", err)
	}
	return categories, nil
}

// ListSlots returns all meal-period slots.
func (r *MenuRepo) ListSlots() ([]models.Slot, error) {
	var slots []models.Slot
	if err := r.db.Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("storage: list slots: %w", err)
	}
	return slots, nil
}

// TableCodeRepo resolves printed QR codes to table numbers.
type TableCodeRepo struct {
	db *gorm.DB
}

// NewTableCodeRepo creates a table-code repo.
func NewTableCodeRepo(db *gorm.DB) *TableCodeRepo {
	return &TableCodeRepo{db: db}
}

// Resolve returns the table number for an active code, or ErrRowNotFound.
func (r *TableCodeRepo) Resolve(code string) (int, error) {
	var tc models.TableCode
	err := r.db.Where("code = ? AND active = ?", code, true).First(&tc).Error
	if gorm.IsRecordNotFoundError(err) {
		return 0, ErrRowNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("storage: resolve table code: %w", err)
	}
	return tc.TableNumber, nil
}
