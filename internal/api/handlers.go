package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"qrmenu/internal/cart"
	"qrmenu/internal/menu"
	"qrmenu/internal/monitoring"
	"qrmenu/internal/storage"
)

// Table code handlers

// ValidateTableCode resolves a scanned QR code to a table number.
func (s *Server) ValidateTableCode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	tableNumber, err := s.tables.Resolve(code)
	if errors.Is(err, storage.ErrRowNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid table code"})
		return
	}
	if err != nil {
		s.internalError(c, "validate table code", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table_number": tableNumber})
}

// Menu handlers

// GetMenu returns items, display-ordered categories and slots in one call.
func (s *Server) GetMenu(c *gin.Context) {
	items, err := s.menu.ListItems()
	if err != nil {
		s.internalError(c, "list menu items", err)
		return
	}
	categories, err := s.menu.ListCategories()
	if err != nil {
		s.internalError(c, "list categories", err)
		return
	}
	slots, err := s.menu.ListSlots()
	if err != nil {
		s.internalError(c, "list slots", err)
		return
	}
	menu.SortCategories(categories, time.Now())
	c.JSON(http.StatusOK, gin.H{
		"items":      items,
		"categories": categories,
		"slots":      slots,
	})
}

// ListMenuItems returns all available menu items.
func (s *Server) ListMenuItems(c *gin.Context) {
	items, err := s.menu.ListItems()
	if err != nil {
		s.internalError(c, "list menu items", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetMenuItem returns one menu item by id.
func (s *Server) GetMenuItem(c *gin.Context) {
	item, err := s.menu.GetItem(c.Param("id"))
	if errors.Is(err, storage.ErrRowNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}
	if err != nil {
		s.internalError(c, "get menu item", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ListCategories returns categories in display order.
func (s *Server) ListCategories(c *gin.Context) {
	categories, err := s.menu.ListCategories()
	if err != nil {
		s.internalError(c, "list categories", err)
		return
	}
	menu.SortCategories(categories, time.Now())
	c.JSON(http.StatusOK, categories)
}

// GetCurrentSlot returns the active meal period, or 404 when none matches.
func (s *Server) GetCurrentSlot(c *gin.Context) {
	slots, err := s.menu.ListSlots()
	if err != nil {
		s.internalError(c, "list slots", err)
		return
	}
	slot, ok := menu.CurrentSlot(slots, time.Now())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active slot"})
		return
	}
	c.JSON(http.StatusOK, slot)
}

// Cart handlers

type cartItemRequest struct {
	ItemID    string          `json:"item_id" binding:"required"`
	Alias     string          `json:"alias" binding:"required"`
	Modifiers json.RawMessage `json:"modifiers"`
}

type cartLineResponse struct {
	Key       string                 `json:"key"`
	ItemID    string                 `json:"item_id"`
	ItemName  string                 `json:"item_name"`
	Modifiers cart.SelectedModifiers `json:"modifiers,omitempty"`
	Quantity  int                    `json:"quantity"`
	Alias     string                 `json:"alias"`
	State     cart.SyncState         `json:"state"`
	LineTotal float64                `json:"line_total"`
}

// GetCart returns an order's lines and totals.
func (s *Server) GetCart(c *gin.Context) {
	syncer, err := s.carts.Get(c.Param("orderID"))
	if err != nil {
		s.internalError(c, "load cart", err)
		return
	}
	store := syncer.Store()
	lines := store.Lines()
	response := make([]cartLineResponse, 0, len(lines))
	for _, line := range lines {
		response = append(response, cartLineResponse{
			Key:       line.Key,
			ItemID:    line.Item.ID,
			ItemName:  line.Item.Name,
			Modifiers: line.Modifiers,
			Quantity:  line.Quantity,
			Alias:     line.Alias,
			State:     line.State,
			LineTotal: cart.RoundCents(cart.LineTotal(line)),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"lines":       response,
		"total_items": store.TotalItems(),
		"total":       cart.RoundCents(store.Total()),
	})
}

// AddCartItem adds one unit of an item (with its modifier selection) to an
// order's cart.
func (s *Server) AddCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	modifiers, err := cart.ParseSelectedModifiers(req.Modifiers)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := s.menu.GetItem(req.ItemID)
	if errors.Is(err, storage.ErrRowNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}
	if err != nil {
		s.internalError(c, "get menu item", err)
		return
	}

	orderID := c.Param("orderID")
	syncer, err := s.carts.Get(orderID)
	if err != nil {
		s.internalError(c, "load cart", err)
		return
	}
	if err := syncer.AddItem(*item, modifiers, req.Alias); err != nil {
		monitoring.CartOperations.WithLabelValues("add", "error").Inc()
		s.internalError(c, "persist cart add", err)
		return
	}
	monitoring.CartOperations.WithLabelValues("add", "ok").Inc()
	s.monitor.RecordCartOperation("add", orderID)
	c.JSON(http.StatusOK, gin.H{
		"total_items": syncer.Store().TotalItems(),
		"total":       cart.RoundCents(syncer.Store().Total()),
	})
}

// RemoveCartItem removes one unit of an item from an order's cart. Removing
// an item that is not in the cart is a no-op.
func (s *Server) RemoveCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	modifiers, err := cart.ParseSelectedModifiers(req.Modifiers)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID := c.Param("orderID")
	syncer, err := s.carts.Get(orderID)
	if err != nil {
		s.internalError(c, "load cart", err)
		return
	}
	if err := syncer.RemoveItem(req.ItemID, modifiers, req.Alias); err != nil {
		monitoring.CartOperations.WithLabelValues("remove", "error").Inc()
		s.internalError(c, "persist cart remove", err)
		return
	}
	monitoring.CartOperations.WithLabelValues("remove", "ok").Inc()
	s.monitor.RecordCartOperation("remove", orderID)
	c.JSON(http.StatusOK, gin.H{
		"total_items": syncer.Store().TotalItems(),
		"total":       cart.RoundCents(syncer.Store().Total()),
	})
}

// Chat handlers

type chatMessageRequest struct {
	CustomerID  string `json:"customer_id" binding:"required"`
	TableNumber int    `json:"table_number" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

// PostChatMessage submits a user message and returns the assistant reply
// with its recommendations.
func (s *Server) PostChatMessage(c *gin.Context) {
	if s.chat == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Chat is not configured"})
		return
	}
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	started := time.Now()
	response, err := s.chat.HandleMessage(c.Request.Context(), req.CustomerID, req.TableNumber, req.Message)
	monitoring.ChatCompletionDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		s.internalError(c, "chat completion", err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetChatSession returns the active session id and ordered history for a
// customer at a table.
func (s *Server) GetChatSession(c *gin.Context) {
	if s.chat == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Chat is not configured"})
		return
	}
	customerID := c.Query("customer_id")
	tableNumber, err := strconv.Atoi(c.Query("table_number"))
	if customerID == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id and table_number are required"})
		return
	}

	session, history, err := s.chat.Session(customerID, tableNumber)
	if err != nil {
		s.internalError(c, "load chat session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"messages":   history,
	})
}

// Weather handler

// GetWeather returns simplified current conditions.
func (s *Server) GetWeather(c *gin.Context) {
	if s.weather == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Weather is not configured"})
		return
	}
	conditions, err := s.weather.Current(c.Request.Context())
	if err != nil {
		s.internalError(c, "fetch weather", err)
		return
	}
	c.JSON(http.StatusOK, conditions)
}

// internalError logs the underlying error server-side and returns a generic
// message, never the upstream detail.
func (s *Server) internalError(c *gin.Context, action string, err error) {
	log.Printf("api: %s: %v", action, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
