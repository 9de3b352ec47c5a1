package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daypulse/capture/internal/adapter/entries"
	"github.com/daypulse/capture/internal/adapter/parser"
	"github.com/daypulse/capture/internal/bus"
	"github.com/daypulse/capture/internal/config"
	"github.com/daypulse/capture/internal/policy"
	"github.com/daypulse/capture/internal/repository"
	"github.com/daypulse/capture/internal/service"
	transport "github.com/daypulse/capture/internal/transport/http"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting capture service...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Parser URL: %s", cfg.ParserURL)
	log.Printf("Entries URL: %s", cfg.EntriesURL)

	// Initialize store
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize external collaborators
	parserClient := parser.NewClient(cfg.ParserURL, cfg.ParserTimeout)
	entriesClient := entries.NewClient(cfg.EntriesURL, cfg.EntriesTimeout)

	// Initialize policy engine
	ctx := context.Background()
	policySource := policy.DefaultPolicy
	if cfg.DraftPolicyFile != "" {
		content, err := os.ReadFile(cfg.DraftPolicyFile)
		if err != nil {
			log.Fatalf("Failed to read policy file %s: %v", cfg.DraftPolicyFile, err)
		}
		policySource = string(content)
	}
	policyEngine, err := policy.NewEngine(ctx, policySource)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize event bus and service
	eventBus := bus.New(cfg.BusHistorySize)
	svc := service.New(db, parserClient, entriesClient, eventBus, policyEngine, cfg)

	// Create HTTP server
	server := transport.NewServer(svc)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Capture API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down capture service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Capture service stopped")
}
