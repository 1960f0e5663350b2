package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"skillarena/models"
)

type gameService struct {
	uowFactory UnitOfWorkFactory
}

// NewGameService creates a new games catalog service
func NewGameService(uowFactory UnitOfWorkFactory) GameService {
	return &gameService{
		uowFactory: uowFactory,
	}
}

func (s *gameService) ListGames(ctx context.Context) ([]*models.Game, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	games, err := uow.GameRepository().List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

func (s *gameService) SeedGames(ctx context.Context, names []string) ([]*models.Game, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	var games []*models.Game
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		game := &models.Game{
			Name:     name,
			Slug:     slug.Make(name),
			IsActive: true,
		}
		if err := uow.GameRepository().Upsert(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to seed game %q: %w", name, err)
		}
		games = append(games, game)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return games, nil
}
