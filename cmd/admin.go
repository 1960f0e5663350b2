package cmd

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"skillarena/config"
	"skillarena/database"
	"skillarena/events"
	"skillarena/repository"
	"skillarena/service"
)

// withServices connects to the database for a one-shot admin command.
// Events emitted by the command are dropped since no subscribers are attached.
func withServices(ctx context.Context, fn func(factory service.UnitOfWorkFactory) error) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(repository.NewUnitOfWorkFactory(db, events.NewBus()))
}

// SeedGames upserts the given game names into the catalog
func SeedGames(ctx context.Context, names []string) error {
	return withServices(ctx, func(factory service.UnitOfWorkFactory) error {
		games, err := service.NewGameService(factory).SeedGames(ctx, names)
		if err != nil {
			return err
		}
		slugs := make([]string, 0, len(games))
		for _, g := range games {
			slugs = append(slugs, g.Slug)
		}
		log.WithField("games", strings.Join(slugs, ",")).Info("Seeded games catalog")
		return nil
	})
}

// PromoteAdmin grants the admin role to the account with the given email
func PromoteAdmin(ctx context.Context, email string) error {
	return withServices(ctx, func(factory service.UnitOfWorkFactory) error {
		account, err := service.NewAccountService(factory).PromoteToAdmin(ctx, email)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"userId": account.ID,
			"email":  account.Email,
		}).Info("Account promoted to admin")
		return nil
	})
}
