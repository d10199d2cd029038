package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"trade-journal-go/internal/cache"
	"trade-journal-go/internal/calendar"
	"trade-journal-go/internal/config"
	"trade-journal-go/internal/database"
	"trade-journal-go/internal/logger"
	"trade-journal-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to the database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	st := store.New(db, log, cfg.Import.ChunkSize)

	// Calendar served through the freshness cache, refreshed on schedule
	cacheSvc := cache.New(st, log)
	calSvc := calendar.New(cfg.Calendar.URL, time.Duration(cfg.Calendar.TTLSeconds)*time.Second, cacheSvc, log)
	refresher, err := calendar.NewRefresher(cfg.Calendar.RefreshSchedule, calSvc, log)
	if err != nil {
		log.Fatal("Invalid calendar refresh schedule", zap.Error(err))
	}
	refresher.Start()
	defer refresher.Stop()

	// Setup HTTP server
	mux := http.NewServeMux()
	apiHandler := NewAPIHandler(log, st, calSvc)

	mux.HandleFunc("/api/trades", apiHandler.TradesHandler)
	mux.HandleFunc("/api/stats", apiHandler.StatsHandler)
	mux.HandleFunc("/api/calendar", apiHandler.CalendarHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting API server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("API server failed", zap.Error(err))
	}
}
