package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"

	"qrmenu/internal/models"
)

// ChatRepo persists chat sessions, their message history and the menu item
// embeddings used for semantic search.
type ChatRepo struct {
	db *gorm.DB
}

// NewChatRepo creates a chat repo.
func NewChatRepo(db *gorm.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// ActiveSession returns the most recent unexpired session for the customer at
// the table, or creates a new one. Expiry is judged against the inactivity
// window at the given time.
func (r *ChatRepo) ActiveSession(customerID string, tableNumber int, now time.Time, ttl time.Duration) (*models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.
		Where("customer_id = ? AND table_number = ?", customerID, tableNumber).
		Order("last_active_at DESC").
		First(&session).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		// fall through to create
	case err != nil:
		return nil, fmt.Errorf("storage: find chat session: %w", err)
	case !session.ExpiredAt(now, ttl):
		return &session, nil
	}

	session = models.ChatSession{
		ID:           uuid.NewString(),
		CustomerID:   customerID,
		TableNumber:  tableNumber,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := r.db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("storage: create chat session: %w", err)
	}
	return &session, nil
}

// Touch advances a session's last-activity timestamp.
func (r *ChatRepo) Touch(sessionID string, now time.Time) error {
	err := r.db.Model(&models.ChatSession{}).
		Where("id = ?", sessionID).
		Update("last_active_at", now).Error
	if err != nil {
		return fmt.Errorf("storage: touch chat session: %w", err)
	}
	return nil
}

// SaveMessage appends one message to a session's history.
func (r *ChatRepo) SaveMessage(msg *models.ChatMessage) error {
	if err := r.db.Create(msg).Error; err != nil {
		return fmt.Errorf("storage: save chat message: %w", err)
	}
	return nil
}

// History returns a session's messages in insertion order.
func (r *ChatRepo) History(sessionID string) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).Order("id ASC").Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("storage: load chat history: %w", err)
	}
	return msgs, nil
}

// SaveEmbedding inserts or replaces the embedding row for a menu item.
func (r *ChatRepo) SaveEmbedding(emb *models.MenuItemEmbedding) error {
	var existing models.MenuItemEmbedding
	err := r.db.Where("menu_item_id = ?", emb.MenuItemID).First(&existing).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		if err := r.db.Create(emb).Error; err != nil {
			return fmt.Errorf("storage: insert embedding: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("storage: find embedding: %w", err)
	}
	existing.Vector = emb.Vector
	existing.ModelName = emb.ModelName
	existing.Dimensions = emb.Dimensions
	if err := r.db.Save(&existing).Error; err != nil {
		return fmt.Errorf("storage: update embedding: %w", err)
	}
	return nil
}

// ListEmbeddings returns all stored menu item embeddings.
func (r *ChatRepo) ListEmbeddings() ([]models.MenuItemEmbedding, error) {
	var rows []models.MenuItemEmbedding
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("storage: list embeddings: %w", err)
	}
	return rows, nil
}
