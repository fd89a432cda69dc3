package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/agentswap/backend/internal/config"
	"github.com/agentswap/backend/internal/database"
	"github.com/agentswap/backend/internal/handlers"
	mW "github.com/agentswap/backend/internal/middleware"
	"github.com/agentswap/backend/internal/services"
	"github.com/agentswap/backend/internal/store"
)

func main() {
	config.Init()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	var swapStore store.SwapStore
	switch viper.GetString("store.backend") {
	case "postgres":
		db, err := database.InitDB()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		swapStore = store.NewPostgresStore(db)
	default:
		swapStore = store.NewMemoryStore()
	}

	oracle := services.NewOracleService()
	ledger := services.NewLedgerService(swapStore, oracle)
	proofs := services.NewProofService()
	transfers := services.NewTransferService()
	settlement := services.NewSettlementService(ledger, proofs, transfers, redisClient)
	negotiation := services.NewNegotiationService(ledger, settlement, proofs)
	authService := services.NewAuthService()
	chatHandler := handlers.NewChatHandler(negotiation)
	qrHandler := handlers.NewQRHandler(ledger, services.NewQRService(redisClient))

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/", chatHandler.Status)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/auth/token", authService.Token)

	if viper.GetBool("agent.sign_results") {
		// Authenticated variant: the peer must present a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(mW.AgentAuth)
			r.Post("/chat", chatHandler.Chat)
			r.Get("/requests/{id}/qr", qrHandler.RequestQR)
		})
	} else {
		r.Post("/chat", chatHandler.Chat)
		r.Get("/requests/{id}/qr", qrHandler.RequestQR)
	}

	port := viper.GetString("agent.port")
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("agentswap relay (%s) starting on :%s", viper.GetString("agent.role"), port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
