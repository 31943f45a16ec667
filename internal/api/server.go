package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"qrmenu/internal/cart"
	"qrmenu/internal/chat"
	"qrmenu/internal/models"
	"qrmenu/internal/monitoring"
	"qrmenu/internal/weather"
)

// MenuStore is the read side of the menu catalogue used by the handlers.
type MenuStore interface {
	ListItems() ([]models.MenuItem, error)
	GetItem(id string) (*models.MenuItem, error)
	ListCategories() ([]models.Category, error)
	ListSlots() ([]models.Slot, error)
}

// TableCodeStore resolves QR codes to table numbers.
type TableCodeStore interface {
	Resolve(code string) (int, error)
}

// ChatService drives the recommendation chat.
type ChatService interface {
	HandleMessage(ctx context.Context, customerID string, tableNumber int, text string) (*chat.Response, error)
	Session(customerID string, tableNumber int) (*models.ChatSession, []models.ChatMessage, error)
}

// WeatherService supplies simplified current conditions.
type WeatherService interface {
	Current(ctx context.Context) (weather.Conditions, error)
}

// Server is the HTTP surface of the service.
type Server struct {
	Router *gin.Engine

	menu    MenuStore
	tables  TableCodeStore
	carts   *cart.Manager
	feed    cart.EventSource
	chat    ChatService
	weather WeatherService
	monitor *monitoring.Monitor
}

// Deps bundles the server's collaborators. Chat and Weather may be nil when
// the corresponding API keys are not configured; their routes then return
// 503.
type Deps struct {
	Menu    MenuStore
	Tables  TableCodeStore
	Carts   *cart.Manager
	Feed    cart.EventSource
	Chat    ChatService
	Weather WeatherService
	Monitor *monitoring.Monitor
}

// NewServer creates the API server and wires its routes.
func NewServer(deps Deps) *Server {
	if deps.Monitor == nil {
		deps.Monitor = monitoring.NewMonitor()
	}
	server := &Server{
		Router:  gin.Default(),
		menu:    deps.Menu,
		tables:  deps.Tables,
		carts:   deps.Carts,
		feed:    deps.Feed,
		chat:    deps.Chat,
		weather: deps.Weather,
		monitor: deps.Monitor,
	}
	server.setupRoutes()
	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.Router.Use(func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		monitoring.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	})

	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "qrmenu API is running"})
	})

	s.Router.GET("/ws/orders/:orderID", s.handleCartFeed)

	v1 := s.Router.Group("/api/v1")
	{
		// Table codes
		v1.GET("/tables/validate", s.ValidateTableCode)

		// Menu reads
		v1.GET("/menu", s.GetMenu)
		v1.GET("/menu/items", s.ListMenuItems)
		v1.GET("/menu/items/:id", s.GetMenuItem)
		v1.GET("/categories", s.ListCategories)
		v1.GET("/slots/current", s.GetCurrentSlot)

		// Cart
		v1.GET("/cart/:orderID", s.GetCart)
		v1.POST("/cart/:orderID/items", s.AddCartItem)
		v1.DELETE("/cart/:orderID/items", s.RemoveCartItem)

		// Chat
		v1.POST("/chat/messages", s.PostChatMessage)
		v1.GET("/chat/sessions", s.GetChatSession)

		// Weather passthrough
		v1.GET("/weather", s.GetWeather)
	}
}
