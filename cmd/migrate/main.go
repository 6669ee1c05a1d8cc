package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"surplus-food-marketplace/internal/config"
	"surplus-food-marketplace/internal/database"
	"surplus-food-marketplace/internal/logger"
)

func main() {
	var (
		statusFlag = flag.Bool("status", false, "Show migration status")
		upFlag     = flag.Bool("up", false, "Run pending migrations")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: "migrate",
		Env:     cfg.Server.Env,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
	})

	if !*statusFlag && !*upFlag {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/migrate -status   # Show migration status")
		fmt.Println("  go run ./cmd/migrate -up       # Run pending migrations")
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect to database
	db, err := database.NewConnection(ctx, database.Config{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	switch {
	case *statusFlag:
		status, err := db.GetMigrationStatus(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get migration status")
		}
		for _, m := range status {
			state := "pending"
			if m.Applied {
				state = "applied"
			}
			fmt.Printf("%03d  %-30s %s\n", m.Version, m.Name, state)
		}
	case *upFlag:
		if err := db.RunMigrations(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		log.Info().Msg("all migrations completed")
	}
}
