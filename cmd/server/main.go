package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aishopping/backend/config"
	httpDelivery "github.com/aishopping/backend/internal/delivery/http"
	"github.com/aishopping/backend/internal/infrastructure/gemini"
	"github.com/aishopping/backend/internal/infrastructure/httpcall"
	"github.com/aishopping/backend/internal/infrastructure/serpapi"
	"github.com/aishopping/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting AI Shopping Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	debug := cfg.Server.Environment == "development"

	// One resilient caller per upstream; model calls get a longer timeout
	geminiCaller := httpcall.NewCaller(httpcall.Config{
		MaxRetries: cfg.Retry.MaxRetries,
		MaxBackoff: cfg.Retry.MaxBackoff,
		BaseDelay:  cfg.Retry.BaseDelay,
		Timeout:    60 * time.Second,
	})
	serpCaller := httpcall.NewCaller(httpcall.Config{
		MaxRetries: cfg.Retry.MaxRetries,
		MaxBackoff: cfg.Retry.MaxBackoff,
		BaseDelay:  cfg.Retry.BaseDelay,
		Timeout:    30 * time.Second,
	})

	geminiClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, geminiCaller)
	serpClient := serpapi.NewClient(cfg.SerpAPI.APIKey, cfg.SerpAPI.BaseURL, cfg.Offers.Country, cfg.Offers.Language, serpCaller)

	if debug {
		geminiCaller.SetDebug(true)
		serpCaller.SetDebug(true)
		geminiClient.SetDebug(true)
		serpClient.SetDebug(true)
		log.Printf("Upstream client debug mode enabled")
	}

	// Initialize usecase layer
	identifyService := usecase.NewIdentifyService(geminiClient, debug)
	offerService := usecase.NewOfferService(serpClient, usecase.OfferServiceConfig{
		DefaultCount:       cfg.Offers.DefaultCount,
		EnableDebugLogging: debug,
	})

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(identifyService, offerService, cfg.Offers.DefaultCount)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
