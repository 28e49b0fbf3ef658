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

	"sacredmelodies/internal/api"
	"sacredmelodies/internal/chat"
	"sacredmelodies/internal/config"
	"sacredmelodies/internal/core"
	"sacredmelodies/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flag for loading the built-in library
	seedFlag := flag.Bool("seed", false, "Seed built-in songs and studies and exit")
	flag.Parse()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	if *seedFlag {
		numSeeded, err := dbStore.SeedBuiltins()
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Printf("Seeding complete. Loaded %d built-in records. Exiting.", numSeeded)
		os.Exit(0)
	}

	// Built-ins are also ensured on normal startup; seeding is idempotent.
	if _, err := dbStore.SeedBuiltins(); err != nil {
		log.Printf("Warning: failed to seed built-in library: %v", err)
	}

	// Initialize Gemini service (degrades gracefully without an API key)
	geminiService, err := core.NewGeminiService(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize Gemini service: %v", err)
	}

	// Initialize chat hub and services
	hub := chat.NewHub()
	go hub.Run()

	libraryService := core.NewLibraryService(dbStore, geminiService, geminiService, geminiService)
	studyService := core.NewStudyService(dbStore, geminiService)
	chatService := core.NewChatService(dbStore, hub, config.AppConfig.ChatMessageLimit)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(dbStore, libraryService, studyService, chatService, hub)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // streamed explanations can run long
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
