package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"qrmenu/internal/models"
)

// MockLLM is a mock implementation of the llms.Model interface
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	args := m.Called(ctx, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llms.ContentResponse), args.Error(1)
}

// fakeSessionStore keeps sessions and messages in memory.
type fakeSessionStore struct {
	session  *models.ChatSession
	messages []models.ChatMessage
}

func (f *fakeSessionStore) ActiveSession(customerID string, tableNumber int, now time.Time, ttl time.Duration) (*models.ChatSession, error) {
	if f.session == nil || f.session.ExpiredAt(now, ttl) {
		f.session = &models.ChatSession{
			ID:           "session-1",
			CustomerID:   customerID,
			TableNumber:  tableNumber,
			CreatedAt:    now,
			LastActiveAt: now,
		}
		f.messages = nil
	}
	return f.session, nil
}

func (f *fakeSessionStore) Touch(sessionID string, now time.Time) error {
	if f.session != nil && f.session.ID == sessionID {
		f.session.LastActiveAt = now
	}
	return nil
}

func (f *fakeSessionStore) SaveMessage(msg *models.ChatMessage) error {
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeSessionStore) History(sessionID string) ([]models.ChatMessage, error) {
	return f.messages, nil
}

// fakeMenu serves a fixed catalogue.
type fakeMenu struct{}

func (fakeMenu) ListItems() ([]models.MenuItem, error) {
	return []models.MenuItem{
		{ID: "item1", Name: "Margherita Pizza", Price: 12, Description: "Tomato, mozzarella, basil"},
		{ID: "item2", Name: "Caesar Salad", Price: 8},
	}, nil
}

func (fakeMenu) ListSlots() ([]models.Slot, error) {
	return []models.Slot{{Name: "all day", Start: "00:00", End: "23:59"}}, nil
}

func TestHandleMessage_ParsesStructuredReply(t *testing.T) {
	mockLLM := new(MockLLM)
	store := &fakeSessionStore{}
	orchestrator := NewOrchestrator(mockLLM, store, fakeMenu{}, nil, nil, 30*time.Minute)

	completion := `Here you go: {"reply":"Try the pizza!","recommendations":[{"item_id":"item1","reason":"A classic"}]}`
	mockLLM.On("GenerateContent", mock.Anything, mock.Anything).Return(&llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: completion}},
	}, nil)

	response, err := orchestrator.HandleMessage(context.Background(), "cust1", 4, "What should I eat?")
	require.NoError(t, err)

	assert.Equal(t, "session-1", response.SessionID)
	assert.Equal(t, "Try the pizza!", response.Message)
	require.Len(t, response.Recommendations, 1)
	assert.Equal(t, "item1", response.Recommendations[0].ItemID)

	// Both sides of the exchange are persisted.
	require.Len(t, store.messages, 2)
	assert.Equal(t, models.ChatRoleUser, store.messages[0].Role)
	assert.Equal(t, models.ChatRoleAssistant, store.messages[1].Role)
	assert.NotEmpty(t, store.messages[1].Recommendations)

	// The system prompt embeds the menu.
	messages := mockLLM.Calls[0].Arguments.Get(1).([]llms.MessageContent)
	systemText := messages[0].Parts[0].(llms.TextContent).Text
	assert.Contains(t, systemText, "Margherita Pizza")
}

func TestHandleMessage_FallsBackToPlainText(t *testing.T) {
	mockLLM := new(MockLLM)
	store := &fakeSessionStore{}
	orchestrator := NewOrchestrator(mockLLM, store, fakeMenu{}, nil, nil, 30*time.Minute)

	mockLLM.On("GenerateContent", mock.Anything, mock.Anything).Return(&llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "Our salad is lovely today."}},
	}, nil)

	response, err := orchestrator.HandleMessage(context.Background(), "cust1", 4, "hi")
	require.NoError(t, err)

	assert.Equal(t, "Our salad is lovely today.", response.Message)
	assert.Empty(t, response.Recommendations)
}

func TestHandleMessage_SendsHistory(t *testing.T) {
	mockLLM := new(MockLLM)
	store := &fakeSessionStore{}
	orchestrator := NewOrchestrator(mockLLM, store, fakeMenu{}, nil, nil, 30*time.Minute)

	mockLLM.On("GenerateContent", mock.Anything, mock.Anything).Return(&llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "ok"}},
	}, nil)

	_, err := orchestrator.HandleMessage(context.Background(), "cust1", 4, "first")
	require.NoError(t, err)
	_, err = orchestrator.HandleMessage(context.Background(), "cust1", 4, "second")
	require.NoError(t, err)

	// Second call: system + 2 history messages + new user message.
	messages := mockLLM.Calls[1].Arguments.Get(1).([]llms.MessageContent)
	assert.Len(t, messages, 4)
}

func TestParseAssistantReply(t *testing.T) {
	reply, recommendations := parseAssistantReply(`{"reply":"hi","recommendations":[{"item_id":"a","reason":"r"},{"item_id":"","reason":"dropped"}]}`)
	assert.Equal(t, "hi", reply)
	require.Len(t, recommendations, 1)
	assert.Equal(t, "a", recommendations[0].ItemID)

	reply, recommendations = parseAssistantReply("just prose")
	assert.Equal(t, "just prose", reply)
	assert.Nil(t, recommendations)

	// More than four recommendations are truncated.
	reply, recommendations = parseAssistantReply(`{"reply":"hi","recommendations":[{"item_id":"1"},{"item_id":"2"},{"item_id":"3"},{"item_id":"4"},{"item_id":"5"}]}`)
	assert.Equal(t, "hi", reply)
	assert.Len(t, recommendations, 4)
}
