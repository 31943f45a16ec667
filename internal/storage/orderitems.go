package storage

import (
	"errors"
	"fmt"

	"github.com/jinzhu/gorm"

	"qrmenu/internal/events"
	"qrmenu/internal/models"
)

// ErrRowNotFound marks a lookup that found no row. Callers must treat only
// this error as "create a new row"; any other database error is a hard
// failure.
var ErrRowNotFound = errors.New("storage: row not found")

// OrderItemRepo persists cart rows in the temporary_order_items table and
// publishes a change event after every committed write.
type OrderItemRepo struct {
	db  *gorm.DB
	bus *events.Bus
}

// NewOrderItemRepo creates a repo over the given database and change bus.
func NewOrderItemRepo(db *gorm.DB, bus *events.Bus) *OrderItemRepo {
	return &OrderItemRepo{db: db, bus: bus}
}

// Find looks up the row for (order, item, canonical modifiers, alias).
// Returns ErrRowNotFound when the row genuinely does not exist.
func (r *OrderItemRepo) Find(orderID, itemID, canonicalModifiers, alias string) (*models.TempOrderItem, error) {
	var row models.TempOrderItem
	err := r.db.Where(
		"order_id = ? AND menu_item_id = ? AND modifiers = ? AND alias = ?",
		orderID, itemID, canonicalModifiers, alias,
	).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrRowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: find order item: %w", err)
	}
	return &row, nil
}

// Insert creates a new row and publishes an INSERT event.
func (r *OrderItemRepo) Insert(row *models.TempOrderItem) error {
	if err := r.db.Create(row).Error; err != nil {
		return fmt.Errorf("storage: insert order item: %w", err)
	}
	r.bus.Publish(models.OrderItemEvent{
		Type:    models.OrderItemInserted,
		OrderID: row.OrderID,
		Row:     *row,
	})
	return nil
}

// SetQuantity updates a row's quantity in place and publishes an UPDATE
// event carrying the post-change row.
func (r *OrderItemRepo) SetQuantity(row *models.TempOrderItem, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("storage: quantity must be at least 1, got %d", quantity)
	}
	if err := r.db.Model(row).Update("quantity", quantity).Error; err != nil {
		return fmt.Errorf("storage: update order item: %w", err)
	}
	row.Quantity = quantity
	r.bus.Publish(models.OrderItemEvent{
		Type:    models.OrderItemUpdated,
		OrderID: row.OrderID,
		Row:     *row,
	})
	return nil
}

// Delete removes the row and publishes a DELETE event carrying the removed
// row.
func (r *OrderItemRepo) Delete(row *models.TempOrderItem) error {
	if err := r.db.Delete(row).Error; err != nil {
		return fmt.Errorf("storage: delete order item: %w", err)
	}
	r.bus.Publish(models.OrderItemEvent{
		Type:    models.OrderItemDeleted,
		OrderID: row.OrderID,
		Row:     *row,
	})
	return nil
}

// ListByOrder returns all rows of one order.
func (r *OrderItemRepo) ListByOrder(orderID string) ([]models.TempOrderItem, error) {
	var rows []models.TempOrderItem
	if err := r.db.Where("order_id = ?", orderID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("storage: list order items: %w", err)
	}
	return rows, nil
}

// ClearOrder deletes every row of one order, publishing a DELETE event per
// removed row so watchers converge.
func (r *OrderItemRepo) ClearOrder(orderID string) error {
	rows, err := r.ListByOrder(orderID)
	if err != nil {
		return err
	}
	for i := range rows {
		if err := r.Delete(&rows[i]); err != nil {
			return err
		}
	}
	return nil
}
