package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/robfig/cron/v3"

	"github.com/divstrat/dividend-reinvest-backend/internal/api"
	"github.com/divstrat/dividend-reinvest-backend/internal/config"
	"github.com/divstrat/dividend-reinvest-backend/internal/database"
	"github.com/divstrat/dividend-reinvest-backend/internal/fxrate"
	"github.com/divstrat/dividend-reinvest-backend/internal/marketdata"
	"github.com/divstrat/dividend-reinvest-backend/internal/repository"
	"github.com/divstrat/dividend-reinvest-backend/internal/service"
	"github.com/divstrat/dividend-reinvest-backend/internal/simulation"
	"github.com/divstrat/dividend-reinvest-backend/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Market data clients
	yahooClient := yahoo.NewFinanceClient(cfg.Market.RequestTimeout)
	fxCache := cache.New(cfg.Market.FxCacheTTL, 2*cfg.Market.FxCacheTTL)
	fxProvider := fxrate.NewProvider(yahooClient, fxCache, cfg.Market.MaxAttempts, cfg.Market.RetryBackoff)
	priceService := marketdata.NewPriceService(yahooClient, cfg.Market.MaxAttempts, cfg.Market.RetryBackoff, cfg.Market.ForwardWindowDays)
	dividendService := marketdata.NewDividendService(yahooClient, cfg.Market.MaxAttempts, cfg.Market.RetryBackoff)

	// Core simulator
	simulator := simulation.NewSimulator(priceService, dividendService, fxProvider, cfg.Market.Prefetch)

	// Create repositories and services
	runRepo := repository.NewSimulationRunRepository(db)
	systemService := service.NewSystemService(db)
	simulationService := service.NewSimulationService(simulator, runRepo)

	// Nightly flush of cached exchange rates
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 0 * * *", fxProvider.Flush); err != nil {
		log.Fatalf("Failed to schedule fx cache flush: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(systemService, simulationService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
