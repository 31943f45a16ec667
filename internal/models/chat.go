package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// ChatSession groups the messages of one customer at one table. A session is
// considered expired once no message has arrived within the inactivity window.
type ChatSession struct {
	ID           string    `gorm:"primary_key" json:"id"`
	CustomerID   string    `gorm:"index:idx_sessions_customer_table" json:"customer_id"`
	TableNumber  int       `gorm:"index:idx_sessions_customer_table" json:"table_number"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// ExpiredAt reports whether the session is past its inactivity window at the
// given time.
func (s *ChatSession) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActiveAt) > ttl
}

// ChatMessage is one message in a session's history.
type ChatMessage struct {
	gorm.Model
	SessionID string `gorm:"index" json:"session_id"`
	Role      string `json:"role"`
	Content   string `gorm:"type:text" json:"content"`
	// Recommendations holds the JSON-encoded recommendation list for
	// assistant messages that produced one.
	Recommendations string `gorm:"type:text" json:"recommendations,omitempty"`
}

// Chat message roles
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// MenuItemEmbedding stores one menu item's vector embedding for semantic
// search. Populated by the offline batch job, read at chat time.
type MenuItemEmbedding struct {
	gorm.Model
	MenuItemID string `gorm:"unique_index" json:"menu_item_id"`
	// Vector is the JSON-encoded []float32 embedding.
	Vector     string `gorm:"type:text" json:"vector"`
	ModelName  string `json:"model_name"`
	Dimensions int    `json:"dimensions"`
}
