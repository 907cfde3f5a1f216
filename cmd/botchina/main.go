package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/YouBrin/BotChina/internal/api"
	"github.com/YouBrin/BotChina/internal/bot"
	"github.com/YouBrin/BotChina/internal/catalog"
	"github.com/YouBrin/BotChina/internal/config"
	"github.com/YouBrin/BotChina/internal/flow"
	"github.com/YouBrin/BotChina/internal/params"
	"github.com/YouBrin/BotChina/internal/store"
	"github.com/YouBrin/BotChina/internal/store/postgres"
	"github.com/YouBrin/BotChina/internal/store/sheets"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Open the sheet store
	var driver store.Driver
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pg, err := postgres.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := pg.RunMigrations(context.Background()); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		driver = pg
	case config.DriverSheets:
		sh, err := sheets.New(context.Background(), cfg.CredentialsFile, cfg.SpreadsheetID, cfg.Worksheet)
		if err != nil {
			log.Fatalf("Failed to connect to Google Sheets: %v", err)
		}
		driver = sh
	}
	defer driver.Close()

	cache := params.NewCache(driver)
	browser := catalog.New(driver)

	// Initialize Discord bot
	discordBot, err := bot.New(cfg.DiscordToken, cfg.AdminUserID, cache)
	if err != nil {
		log.Fatalf("Failed to create discord bot: %v", err)
	}
	discordBot.SetDispatcher(flow.New(discordBot, cache, browser, driver, discordBot, cfg.AdminUserID))

	// Initialize API server
	apiServer := api.New(cfg, cache, browser)

	// Warm the cache before the first conversation
	if cache.Refresh(context.Background(), true) == params.Failed {
		log.Println("Initial parameter refresh failed, continuing with empty cache")
	}

	// Start Discord bot
	if err := discordBot.Start(); err != nil {
		log.Fatalf("Failed to start discord bot: %v", err)
	}
	defer discordBot.Stop()

	// Start API server
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()

	// Wait for signal to stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
}
