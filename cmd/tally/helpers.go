package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/parthgeek/tally/internal/llm"
	"github.com/parthgeek/tally/internal/storage"
	"github.com/parthgeek/tally/internal/taxonomy"
)

// databasePath resolves the configured database location, creating the parent
// directory when needed.
func databasePath() (string, error) {
	if p := viper.GetString("database.path"); p != "" {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, ".local", "share", "tally")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return filepath.Join(dir, "tally.db"), nil
}

func openStorage() (*storage.SQLiteStorage, error) {
	dbPath, err := databasePath()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return store, nil
}

// loadRegistry builds the taxonomy from the database; a database that was
// never seeded falls back to the built-in category set.
func loadRegistry(ctx context.Context, store *storage.SQLiteStorage) (*taxonomy.Registry, error) {
	cats, err := store.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if len(cats) == 0 {
		slog.Debug("no categories in database, using built-in taxonomy")
		return taxonomy.Default(), nil
	}

	registry, err := taxonomy.NewRegistry(cats)
	if err != nil {
		return nil, fmt.Errorf("invalid category set in database: %w", err)
	}

	return registry, nil
}

func modelConfig() llm.Config {
	viper.SetDefault("model.provider", "anthropic")
	viper.SetDefault("model.max_retries", 3)
	viper.SetDefault("model.retry_delay", time.Second)
	viper.SetDefault("model.cache_ttl", 15*time.Minute)
	viper.SetDefault("model.rate_limit", 15)
	viper.SetDefault("model.temperature", 0.0)
	viper.SetDefault("model.max_tokens", 1024)

	return llm.Config{
		Provider:    viper.GetString("model.provider"),
		APIKey:      viper.GetString("model.api_key"),
		Model:       viper.GetString("model.name"),
		BaseURL:     viper.GetString("model.base_url"),
		MaxRetries:  viper.GetInt("model.max_retries"),
		RetryDelay:  viper.GetDuration("model.retry_delay"),
		CacheTTL:    viper.GetDuration("model.cache_ttl"),
		RateLimit:   viper.GetInt("model.rate_limit"),
		Temperature: viper.GetFloat64("model.temperature"),
		MaxTokens:   viper.GetInt("model.max_tokens"),
	}
}
