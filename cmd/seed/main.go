package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"surplus-food-marketplace/internal/config"
	"surplus-food-marketplace/internal/database"
	"surplus-food-marketplace/internal/logger"
	"surplus-food-marketplace/internal/models"
	"surplus-food-marketplace/internal/repositories"
)

func main() {
	reset := flag.Bool("reset", false, "Delete all checkouts, orders and order items before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: "seed",
		Env:     cfg.Server.Env,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
	})

	ctx := context.Background()

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

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	store := repositories.NewStore(db.DB)

	if *reset {
		if err := store.ResetCheckouts(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to reset checkouts")
		}
		log.Info().Msg("checkout data cleared")
	}

	if err := seed(ctx, store, log, time.Now()); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
}

func seed(ctx context.Context, store *repositories.Store, log zerolog.Logger, now time.Time) error {
	restaurantIDs := make(map[string]string, len(restaurants))
	for _, r := range restaurants {
		id, err := store.Restaurants.Upsert(ctx, &models.Restaurant{
			ID:       uuid.NewString(),
			Slug:     r.Slug,
			Name:     r.Name,
			City:     r.City,
			IsActive: r.IsActive,
		})
		if err != nil {
			return err
		}
		restaurantIDs[r.Slug] = id
	}
	log.Info().Int("count", len(restaurantIDs)).Msg("restaurants seeded")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, it := range items {
		it := it
		restaurantID, ok := restaurantIDs[it.RestaurantSlug]
		if !ok {
			return fmt.Errorf("item %q references unknown restaurant %q", it.Name, it.RestaurantSlug)
		}

		g.Go(func() error {
			_, err := store.Items.UpsertItem(gctx, &models.Item{
				ID:                   uuid.NewString(),
				RestaurantID:         restaurantID,
				Name:                 it.Name,
				OriginalPriceCents:   it.OriginalPriceCents,
				DiscountedPriceCents: it.DiscountedPriceCents,
				QuantityAvailable:    it.Quantity,
				ExpiresAt:            now.Add(it.ExpiresIn),
			})
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Int("count", len(items)).Msg("items seeded")
	return nil
}
