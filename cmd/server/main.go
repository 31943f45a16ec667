package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tmc/langchaingo/llms/openai"

	"qrmenu/internal/api"
	"qrmenu/internal/cart"
	"qrmenu/internal/chat"
	"qrmenu/internal/config"
	"qrmenu/internal/database"
	"qrmenu/internal/events"
	"qrmenu/internal/monitoring"
	"qrmenu/internal/storage"
	"qrmenu/internal/weather"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	db, err := database.Open(cfg.Database.Dialect, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	bus := events.NewBus()
	menuRepo := storage.NewMenuRepo(db)
	tableCodes := storage.NewTableCodeRepo(db)
	orderItems := storage.NewOrderItemRepo(db, bus)
	carts := cart.NewManager(orderItems, bus)

	var chatService api.ChatService
	if cfg.OpenAI.APIKey != "" {
		llm, llmErr := openai.New(
			openai.WithModel(cfg.OpenAI.Model),
			openai.WithToken(cfg.OpenAI.APIKey),
			openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
		)
		if llmErr != nil {
			log.Fatalf("Failed to initialize LLM: %v", llmErr)
		}
		chatRepo := storage.NewChatRepo(db)
		var weatherProvider chat.WeatherProvider
		if cfg.Weather.APIKey != "" {
			weatherProvider = weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.APIKey, cfg.Weather.City)
		}
		search := chat.NewSearch(llm, chatRepo)
		chatService = chat.NewOrchestrator(llm, chatRepo, menuRepo, weatherProvider, search, cfg.SessionTTL())
	} else {
		log.Println("OPENAI_API_KEY not set, chat endpoints disabled")
	}

	var weatherService api.WeatherService
	if cfg.Weather.APIKey != "" {
		weatherService = weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.APIKey, cfg.Weather.City)
	}

	server := api.NewServer(api.Deps{
		Menu:    menuRepo,
		Tables:  tableCodes,
		Carts:   carts,
		Feed:    bus,
		Chat:    chatService,
		Weather: weatherService,
		Monitor: monitoring.NewMonitor(),
	})

	go startMetricsServer(cfg.Server.MetricsPort)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting API server on port %d", cfg.Server.Port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func startMetricsServer(port int) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}
