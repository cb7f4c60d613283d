package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fkhayef/rewear/docs"
	"github.com/fkhayef/rewear/internal/config"
	"github.com/fkhayef/rewear/internal/database"
	"github.com/fkhayef/rewear/internal/item"
	"github.com/fkhayef/rewear/internal/ledger"
	"github.com/fkhayef/rewear/internal/member"
	"github.com/fkhayef/rewear/internal/moderation"
	"github.com/fkhayef/rewear/internal/notification"
	"github.com/fkhayef/rewear/internal/swap"
	"github.com/fkhayef/rewear/internal/sweeper"
	mw "github.com/fkhayef/rewear/pkg/middleware"
)

// @title           ReWear API
// @version         1.0
// @description     Community clothing exchange: point-backed item listings, swap negotiation, and moderation.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	// Points ledger
	ledgerRepo := ledger.NewRepository(db)
	ledgerService := ledger.NewService(ledgerRepo)
	ledgerHandler := ledger.NewHandler(ledgerService)

	// Member feature (registration credits the signup grant via the ledger)
	memberRepo := member.NewRepository(db)
	memberService := member.NewService(memberRepo, ledgerService, cfg.SignupGrant)
	memberHandler := member.NewHandler(memberService)

	// Item lifecycle
	itemRepo := item.NewRepository(db)
	itemService := item.NewService(itemRepo, cfg.PointsValueMin, cfg.PointsValueMax)
	itemHandler := item.NewHandler(itemService)

	// Notifications (also the notifier for swaps and moderation)
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo)
	notificationHandler := notification.NewHandler(notificationService)

	// Swap negotiation
	swapRepo := swap.NewRepository(db)
	swapService := swap.NewService(swapRepo, itemService, ledgerService, notificationService)
	swapHandler := swap.NewHandler(swapService)

	// Admin surface
	moderationRepo := moderation.NewRepository(db)
	moderationService := moderation.NewService(moderationRepo, itemService, memberService, notificationService)
	moderationHandler := moderation.NewHandler(moderationService)

	// Stale request expiry, disabled unless a TTL is configured
	if cfg.SwapRequestTTL > 0 {
		sw := sweeper.New(swapService, cfg.SwapRequestTTL)
		if err := sw.Start(cfg.SweeperSchedule); err != nil {
			log.Fatalf("Failed to start sweeper: %v", err)
		}
		defer sw.Stop()
	}

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Registration stays open; everything else requires a token
		r.Post("/members", memberHandler.Create)

		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(cfg.JWTSecret))

			r.Mount("/members", memberHandler.Routes())
			r.Mount("/ledger", ledgerHandler.Routes())
			r.Mount("/items", itemHandler.Routes())
			r.Mount("/swaps", swapHandler.Routes())
			r.Mount("/notifications", notificationHandler.Routes())
			r.Mount("/admin", moderationHandler.Routes())
		})
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
