package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrmenu/internal/cart"
	"qrmenu/internal/chat"
	"qrmenu/internal/events"
	"qrmenu/internal/models"
	"qrmenu/internal/storage"
	"qrmenu/internal/weather"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeMenuStore serves a fixed catalogue.
type fakeMenuStore struct {
	items []models.MenuItem
	slots []models.Slot
}

func (f *fakeMenuStore) ListItems() ([]models.MenuItem, error) { return f.items, nil }

func (f *fakeMenuStore) GetItem(id string) (*models.MenuItem, error) {
	for _, item := range f.items {
		if item.ID == id {
			copied := item
			return &copied, nil
		}
	}
	return nil, storage.ErrRowNotFound
}

func (f *fakeMenuStore) ListCategories() ([]models.Category, error) { return nil, nil }
func (f *fakeMenuStore) ListSlots() ([]models.Slot, error)          { return f.slots, nil }

// fakeTableCodes resolves a single code.
type fakeTableCodes struct{}

func (fakeTableCodes) Resolve(code string) (int, error) {
	if code == "good-code" {
		return 7, nil
	}
	return 0, storage.ErrRowNotFound
}

// fakeOrderItems is the in-memory persistence behind the cart manager.
type fakeOrderItems struct {
	rows map[string]*models.TempOrderItem
	next uint
}

func newFakeOrderItems() *fakeOrderItems {
	return &fakeOrderItems{rows: make(map[string]*models.TempOrderItem)}
}

func (f *fakeOrderItems) key(orderID, itemID, modifiers, alias string) string {
	return orderID + "|" + itemID + "|" + modifiers + "|" + alias
}

func (f *fakeOrderItems) Find(orderID, itemID, modifiers, alias string) (*models.TempOrderItem, error) {
	row, ok := f.rows[f.key(orderID, itemID, modifiers, alias)]
	if !ok {
		return nil, storage.ErrRowNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeOrderItems) Insert(row *models.TempOrderItem) error {
	f.next++
	row.ID = f.next
	stored := *row
	f.rows[f.key(row.OrderID, row.MenuItemID, row.Modifiers, row.Alias)] = &stored
	return nil
}

func (f *fakeOrderItems) SetQuantity(row *models.TempOrderItem, quantity int) error {
	stored := f.rows[f.key(row.OrderID, row.MenuItemID, row.Modifiers, row.Alias)]
	stored.Quantity = quantity
	row.Quantity = quantity
	return nil
}

func (f *fakeOrderItems) Delete(row *models.TempOrderItem) error {
	delete(f.rows, f.key(row.OrderID, row.MenuItemID, row.Modifiers, row.Alias))
	return nil
}

func (f *fakeOrderItems) ListByOrder(orderID string) ([]models.TempOrderItem, error) {
	var rows []models.TempOrderItem
	for _, row := range f.rows {
		if row.OrderID == orderID {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

func newTestServer() *Server {
	bus := events.NewBus()
	menuStore := &fakeMenuStore{
		items: []models.MenuItem{
			{ID: "item1", Name: "Margherita Pizza", Price: 10, Available: true},
			{ID: "item2", Name: "Caesar Salad", Price: 8, Available: true},
		},
		slots: []models.Slot{{Name: "all day", Start: "00:00", End: "23:59"}},
	}
	return NewServer(Deps{
		Menu:   menuStore,
		Tables: fakeTableCodes{},
		Carts:  cart.NewManager(newFakeOrderItems(), bus),
		Feed:   bus,
	})
}

func doRequest(server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		encoded, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	server.Router.ServeHTTP(recorder, req)
	return recorder
}

func TestValidateTableCode(t *testing.T) {
	server := newTestServer()

	response := doRequest(server, http.MethodGet, "/api/v1/tables/validate?code=good-code", nil)
	require.Equal(t, http.StatusOK, response.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
	assert.Equal(t, 7, body["table_number"])

	response = doRequest(server, http.MethodGet, "/api/v1/tables/validate?code=bad-code", nil)
	assert.Equal(t, http.StatusNotFound, response.Code)

	response = doRequest(server, http.MethodGet, "/api/v1/tables/validate", nil)
	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func TestCartAddAndRemove(t *testing.T) {
	server := newTestServer()

	add := map[string]interface{}{"item_id": "item1", "alias": "bob"}
	response := doRequest(server, http.MethodPost, "/api/v1/cart/order1/items", add)
	require.Equal(t, http.StatusOK, response.Code)

	response = doRequest(server, http.MethodPost, "/api/v1/cart/order1/items", add)
	require.Equal(t, http.StatusOK, response.Code)
	var totals struct {
		TotalItems int     `json:"total_items"`
		Total      float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &totals))
	assert.Equal(t, 2, totals.TotalItems)
	assert.Equal(t, 20.0, totals.Total)

	response = doRequest(server, http.MethodGet, "/api/v1/cart/order1", nil)
	require.Equal(t, http.StatusOK, response.Code)
	var cartBody struct {
		Lines []struct {
			Key      string `json:"key"`
			Quantity int    `json:"quantity"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &cartBody))
	require.Len(t, cartBody.Lines, 1)
	assert.Equal(t, 2, cartBody.Lines[0].Quantity)

	response = doRequest(server, http.MethodDelete, "/api/v1/cart/order1/items", add)
	require.Equal(t, http.StatusOK, response.Code)
	response = doRequest(server, http.MethodDelete, "/api/v1/cart/order1/items", add)
	require.Equal(t, http.StatusOK, response.Code)
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &totals))
	assert.Equal(t, 0, totals.TotalItems)
}

func TestCartAddWithModifiers(t *testing.T) {
	server := newTestServer()

	add := map[string]interface{}{
		"item_id":   "item1",
		"alias":     "bob",
		"modifiers": map[string]interface{}{"size": []map[string]interface{}{{"id": "large", "extra_price": 2.5}}},
	}
	response := doRequest(server, http.MethodPost, "/api/v1/cart/order1/items", add)
	require.Equal(t, http.StatusOK, response.Code)

	var totals struct {
		Total float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &totals))
	assert.Equal(t, 12.5, totals.Total)
}

func TestCartAddValidation(t *testing.T) {
	server := newTestServer()

	response := doRequest(server, http.MethodPost, "/api/v1/cart/order1/items", map[string]interface{}{"alias": "bob"})
	assert.Equal(t, http.StatusBadRequest, response.Code)

	response = doRequest(server, http.MethodPost, "/api/v1/cart/order1/items", map[string]interface{}{
		"item_id": "ghost", "alias": "bob",
	})
	assert.Equal(t, http.StatusNotFound, response.Code)

	response = doRequest(server, http.MethodPost, "/api/v1/cart/order1/items", map[string]interface{}{
		"item_id": "item1", "alias": "bob", "modifiers": []int{1, 2},
	})
	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func TestGetCurrentSlot(t *testing.T) {
	server := newTestServer()

	response := doRequest(server, http.MethodGet, "/api/v1/slots/current", nil)
	assert.Equal(t, http.StatusOK, response.Code)
}

func TestChatUnconfigured(t *testing.T) {
	server := newTestServer()

	response := doRequest(server, http.MethodPost, "/api/v1/chat/messages", map[string]interface{}{
		"customer_id": "c1", "table_number": 1, "message": "hi",
	})
	assert.Equal(t, http.StatusServiceUnavailable, response.Code)
}

// stubChat returns canned responses without an LLM.
type stubChat struct{}

func (stubChat) HandleMessage(ctx context.Context, customerID string, tableNumber int, text string) (*chat.Response, error) {
	return &chat.Response{
		SessionID: "s1",
		Message:   "Try the pizza",
		Recommendations: []chat.Recommendation{
			{ItemID: "item1", Reason: "popular"},
		},
	}, nil
}

func (stubChat) Session(customerID string, tableNumber int) (*models.ChatSession, []models.ChatMessage, error) {
	return &models.ChatSession{ID: "s1"}, nil, nil
}

func TestChatEndpoints(t *testing.T) {
	server := newTestServer()
	server.chat = stubChat{}

	response := doRequest(server, http.MethodPost, "/api/v1/chat/messages", map[string]interface{}{
		"customer_id": "c1", "table_number": 1, "message": "hi",
	})
	require.Equal(t, http.StatusOK, response.Code)
	var body chat.Response
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
	assert.Equal(t, "Try the pizza", body.Message)

	response = doRequest(server, http.MethodGet, "/api/v1/chat/sessions?customer_id=c1&table_number=1", nil)
	assert.Equal(t, http.StatusOK, response.Code)

	response = doRequest(server, http.MethodGet, "/api/v1/chat/sessions?customer_id=c1", nil)
	assert.Equal(t, http.StatusBadRequest, response.Code)
}

// stubWeather returns fixed conditions.
type stubWeather struct{}

func (stubWeather) Current(ctx context.Context) (weather.Conditions, error) {
	return weather.Conditions{TempC: 21, Condition: "Clear"}, nil
}

func TestWeatherEndpoint(t *testing.T) {
	server := newTestServer()
	server.weather = stubWeather{}

	response := doRequest(server, http.MethodGet, "/api/v1/weather", nil)
	require.Equal(t, http.StatusOK, response.Code)
	var conditions weather.Conditions
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &conditions))
	assert.Equal(t, 21.0, conditions.TempC)
}

func TestHealth(t *testing.T) {
	server := newTestServer()
	response := doRequest(server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, response.Code)
}
