package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"qrmenu/internal/menu"
	"qrmenu/internal/models"
	"qrmenu/internal/weather"
)

// maxRecommendations caps how many recommended items an assistant reply may
// carry.
const maxRecommendations = 4

// SessionStore is the persistence surface for sessions and message history.
// *storage.ChatRepo satisfies this.
type SessionStore interface {
	ActiveSession(customerID string, tableNumber int, now time.Time, ttl time.Duration) (*models.ChatSession, error)
	Touch(sessionID string, now time.Time) error
	SaveMessage(msg *models.ChatMessage) error
	History(sessionID string) ([]models.ChatMessage, error)
}

// MenuProvider supplies the menu context embedded in the system prompt.
type MenuProvider interface {
	ListItems() ([]models.MenuItem, error)
	ListSlots() ([]models.Slot, error)
}

// WeatherProvider supplies current conditions for the system prompt. May be
// absent; the prompt then simply omits weather.
type WeatherProvider interface {
	Current(ctx context.Context) (weather.Conditions, error)
}

// Recommendation is one recommended menu item with its rationale.
type Recommendation struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// Response is the assistant's reply to one user message.
type Response struct {
	SessionID       string           `json:"session_id"`
	Message         string           `json:"message"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// Orchestrator builds the system prompt from menu context, drives the
// completion model and persists both sides of the conversation.
type Orchestrator struct {
	llm        llms.Model
	sessions   SessionStore
	menu       MenuProvider
	weather    WeatherProvider
	search     *Search
	sessionTTL time.Duration
	now        func() time.Time
}

// NewOrchestrator creates a chat orchestrator. weatherProvider and search may
// be nil; the corresponding prompt context is then omitted.
func NewOrchestrator(llm llms.Model, sessions SessionStore, menu MenuProvider, weatherProvider WeatherProvider, search *Search, sessionTTL time.Duration) *Orchestrator {
	return &Orchestrator{
		llm:        llm,
		sessions:   sessions,
		menu:       menu,
		weather:    weatherProvider,
		search:     search,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// HandleMessage processes one user message: resolves the active session,
// sends the conversation to the model and persists both messages.
func (o *Orchestrator) HandleMessage(ctx context.Context, customerID string, tableNumber int, text string) (*Response, error) {
	now := o.now()
	session, err := o.sessions.ActiveSession(customerID, tableNumber, now, o.sessionTTL)
	if err != nil {
		return nil, err
	}

	history, err := o.sessions.History(session.ID)
	if err != nil {
		return nil, err
	}

	systemPrompt, err := o.buildSystemPrompt(ctx, text)
	if err != nil {
		return nil, err
	}

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	for _, msg := range history {
		role := llms.ChatMessageTypeHuman
		if msg.Role == models.ChatRoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, msg.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, text))

	resp, err := o.llm.GenerateContent(ctx, messages, llms.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("chat: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat: completion returned no choices")
	}
	content := resp.Choices[0].Content

	reply, recommendations := parseAssistantReply(content)

	if err := o.sessions.SaveMessage(&models.ChatMessage{
		SessionID: session.ID,
		Role:      models.ChatRoleUser,
		Content:   text,
	}); err != nil {
		return nil, err
	}
	assistantMsg := &models.ChatMessage{
		SessionID: session.ID,
		Role:      models.ChatRoleAssistant,
		Content:   reply,
	}
	if len(recommendations) > 0 {
		encoded, marshalErr := json.Marshal(recommendations)
		if marshalErr == nil {
			assistantMsg.Recommendations = string(encoded)
		}
	}
	if err := o.sessions.SaveMessage(assistantMsg); err != nil {
		return nil, err
	}
	if err := o.sessions.Touch(session.ID, now); err != nil {
		log.Printf("chat: touch session %s: %v", session.ID, err)
	}

	return &Response{
		SessionID:       session.ID,
		Message:         reply,
		Recommendations: recommendations,
	}, nil
}

// Session returns the active session and its ordered history for a customer
// at a table, creating a fresh session when none is active.
func (o *Orchestrator) Session(customerID string, tableNumber int) (*models.ChatSession, []models.ChatMessage, error) {
	session, err := o.sessions.ActiveSession(customerID, tableNumber, o.now(), o.sessionTTL)
	if err != nil {
		return nil, nil, err
	}
	history, err := o.sessions.History(session.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, history, nil
}

func (o *Orchestrator) buildSystemPrompt(ctx context.Context, userText string) (string, error) {
	items, err := o.menu.ListItems()
	if err != nil {
		return "", err
	}
	slots, err := o.menu.ListSlots()
	if err != nil {
		return "", err
	}

	var prompt strings.Builder
	prompt.WriteString("You are a friendly waiter for a restaurant's digital menu. ")
	prompt.WriteString("Recommend dishes from the menu below and answer questions about them. ")
	prompt.WriteString("Respond with a JSON object of the form ")
	prompt.WriteString(`{"reply": "...", "recommendations": [{"item_id": "...", "reason": "..."}]}`)
	prompt.WriteString(" with 3 or 4 recommendations when the guest asks for suggestions.\n\n")

	if slot, ok := menu.CurrentSlot(slots, o.now()); ok {
		prompt.WriteString(fmt.Sprintf("Current meal period: %s.\n", slot.Name))
	}
	if o.weather != nil {
		if conditions, weatherErr := o.weather.Current(ctx); weatherErr == nil {
			prompt.WriteString(fmt.Sprintf("Current weather: %s, %.0f°C.\n", conditions.Condition, conditions.TempC))
		} else {
			log.Printf("chat: weather unavailable: %v", weatherErr)
		}
	}

	prompt.WriteString("\nMenu:\n")
	for _, item := range items {
		prompt.WriteString(fmt.Sprintf("- [%s] %s (%.2f)", item.ID, item.Name, item.Price))
		if item.Description != "" {
			prompt.WriteString(": " + item.Description)
		}
		if len(item.Allergens) > 0 {
			names := make([]string, len(item.Allergens))
			for i, a := range item.Allergens {
				names[i] = a.Name
			}
			prompt.WriteString(" [allergens: " + strings.Join(names, ", ") + "]")
		}
		prompt.WriteString("\n")
	}

	if o.search != nil {
		matches, searchErr := o.search.Query(ctx, userText, maxRecommendations)
		if searchErr != nil {
			log.Printf("chat: semantic search unavailable: %v", searchErr)
		} else if len(matches) > 0 {
			ids := make([]string, len(matches))
			for i, m := range matches {
				ids[i] = m.MenuItemID
			}
			prompt.WriteString("\nItems most relevant to the guest's message: ")
			prompt.WriteString(strings.Join(ids, ", "))
			prompt.WriteString("\n")
		}
	}

	return prompt.String(), nil
}

// parseAssistantReply extracts the structured reply from a completion. The
// model is asked for a JSON object but may wrap it in prose or code fences;
// extraction is lenient and falls back to treating the whole completion as
// the reply text.
func parseAssistantReply(content string) (string, []Recommendation) {
	var parsed struct {
		Reply           string           `json:"reply"`
		Recommendations []Recommendation `json:"recommendations"`
	}

	candidate := extractJSONObject(content)
	if candidate != "" && json.Unmarshal([]byte(candidate), &parsed) == nil && parsed.Reply != "" {
		recommendations := parsed.Recommendations
		if len(recommendations) > maxRecommendations {
			recommendations = recommendations[:maxRecommendations]
		}
		filtered := recommendations[:0]
		for _, rec := range recommendations {
			if rec.ItemID != "" {
				filtered = append(filtered, rec)
			}
		}
		return parsed.Reply, filtered
	}
	return strings.TrimSpace(content), nil
}

// extractJSONObject returns the outermost {...} span of the text, or "".
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}
