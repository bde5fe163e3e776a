package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moogship/moogship/internal/auth"
	"github.com/moogship/moogship/internal/billing"
	"github.com/moogship/moogship/internal/config"
	"github.com/moogship/moogship/internal/database"
	"github.com/moogship/moogship/internal/middleware"
	"github.com/moogship/moogship/internal/pricing"
	shiprouter "github.com/moogship/moogship/internal/shipment/router"
	shipservice "github.com/moogship/moogship/internal/shipment/service"
	"github.com/moogship/moogship/internal/support"
	"github.com/moogship/moogship/internal/tracking"
	"github.com/moogship/moogship/internal/uploads"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	slog.Info("configuration loaded successfully",
		"db_host", cfg.Database.Host,
		"db_port", cfg.Database.Port,
		"db_name", cfg.Database.Name,
		"db_sslmode", cfg.Database.SSLMode,
	)

	slog.Info("server configuration",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
	)

	// Initialize database connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Perform health check
	if err := database.HealthCheck(db); err != nil {
		log.Fatalf("database health check failed: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	if err := pricing.SeedDefaultRates(db); err != nil {
		log.Fatalf("failed to seed rate table: %v", err)
	}

	// Initialize object storage
	ctx := context.Background()
	driver, err := uploads.NewStorageFromConfig(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}
	storage := uploads.NewUploadService(driver, time.Duration(cfg.Storage.UploadTTLSecs)*time.Second)

	// Services
	authService := auth.NewAuthService(db)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	engine := pricing.NewEngine(db, cfg.Pricing)
	trackingService := tracking.NewService(db)
	billingService := billing.NewService(db)
	shipmentService := shipservice.NewShipmentService(db, engine, trackingService, billingService, cfg.Pricing.DefaultMultiplier)
	supportService := support.NewService(db, storage)

	// Routers
	authRouter := auth.NewRouter(authService, tokens)
	pricingRouter := pricing.NewRouter(engine)
	trackingRouter := tracking.NewRouter(trackingService)
	billingRouter := billing.NewRouter(billingService)
	shipmentRouter := shiprouter.NewShipmentRouter(shipmentService, storage)
	supportRouter := support.NewRouter(supportService)
	objectsHandler := uploads.NewHTTPHandler(storage)

	requireAuth := auth.RequireAuth()
	requireAdmin := auth.RequireAdmin()

	// Set up HTTP routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("POST /api/register", authRouter.HandleRegister)
	mux.HandleFunc("POST /api/login", authRouter.HandleLogin)
	mux.HandleFunc("GET /api/track/{trackingNumber}", trackingRouter.HandleTrack)
	mux.HandleFunc("GET /api/objects/{key}", objectsHandler.HandleDownload)
	mux.HandleFunc("PUT /api/objects/{key}", objectsHandler.HandleDirectPut)

	// Authenticated
	mux.Handle("GET /api/user", requireAuth(http.HandlerFunc(authRouter.HandleCurrentUser)))
	mux.Handle("GET /api/balance", requireAuth(http.HandlerFunc(billingRouter.HandleBalance)))
	mux.Handle("POST /api/calculate-price", requireAuth(http.HandlerFunc(pricingRouter.HandleCalculatePrice)))
	mux.Handle("POST /api/calculate-insurance", requireAuth(http.HandlerFunc(pricingRouter.HandleCalculateInsurance)))
	mux.Handle("POST /api/objects/upload", requireAuth(http.HandlerFunc(objectsHandler.HandlePresign)))

	mux.Handle("POST /api/shipments", requireAuth(http.HandlerFunc(shipmentRouter.HandleCreate)))
	mux.Handle("GET /api/shipments", requireAuth(http.HandlerFunc(shipmentRouter.HandleList)))
	mux.Handle("GET /api/shipments/{id}", requireAuth(http.HandlerFunc(shipmentRouter.HandleGet)))
	mux.Handle("GET /api/shipments/{id}/items", requireAuth(http.HandlerFunc(shipmentRouter.HandleGetItems)))
	mux.Handle("PUT /api/shipments/{id}", requireAuth(http.HandlerFunc(shipmentRouter.HandleUpdate)))
	mux.Handle("PATCH /api/shipments/{id}", requireAuth(http.HandlerFunc(shipmentRouter.HandleUpdate)))
	mux.Handle("POST /api/shipments/{id}/cancel", requireAuth(http.HandlerFunc(shipmentRouter.HandleCancel)))
	mux.Handle("POST /api/shipments/{id}/recalculate", requireAuth(http.HandlerFunc(shipmentRouter.HandleRecalculate)))
	mux.Handle("POST /api/shipments/{id}/upload-invoice", requireAuth(http.HandlerFunc(shipmentRouter.HandleUploadInvoice)))
	mux.Handle("DELETE /api/shipments/{id}/delete-invoice", requireAuth(http.HandlerFunc(shipmentRouter.HandleDeleteInvoice)))
	mux.Handle("PUT /api/packages/{id}", requireAuth(http.HandlerFunc(shipmentRouter.HandleUpdatePackage)))

	mux.Handle("POST /api/support-tickets", requireAuth(http.HandlerFunc(supportRouter.HandleCreate)))
	mux.Handle("GET /api/support-tickets", requireAuth(http.HandlerFunc(supportRouter.HandleList)))

	// Admin back-office
	mux.Handle("POST /api/shipments/{id}/approve", requireAdmin(http.HandlerFunc(shipmentRouter.HandleApprove)))
	mux.Handle("POST /api/shipments/{id}/reject", requireAdmin(http.HandlerFunc(shipmentRouter.HandleReject)))
	mux.Handle("POST /api/balance/top-ups", requireAdmin(http.HandlerFunc(billingRouter.HandleTopUp)))
	mux.Handle("GET /api/analytics/daily-gross-revenue", requireAdmin(http.HandlerFunc(billingRouter.HandleDailyGrossRevenue)))

	// Wrap handler with auth and CORS middleware
	handler := middleware.CORS(&cfg.CORS)(auth.Middleware(authService, tokens)(mux))

	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: handler,
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		slog.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	// Wait for interrupt signal
	<-quit
	slog.Info("shutting down server...")

	// Create a context with timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown of HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	} else {
		slog.Info("server gracefully stopped")
	}

	slog.Info("server stopped")
}
