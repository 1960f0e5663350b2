package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"skillarena/database"
	"skillarena/models"
)

// GameRepository implements the GameRepository interface
type GameRepository struct {
	q queryable
}

// NewGameRepository creates a new game catalog repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

// newGameRepositoryWithTx creates a new game catalog repository with a transaction
func newGameRepositoryWithTx(tx queryable) *GameRepository {
	return &GameRepository{q: tx}
}

// GetByID retrieves a game by its ID
func (r *GameRepository) GetByID(ctx context.Context, id models.GameID) (*models.Game, error) {
	query := `SELECT id, name, slug, description, is_active, created_at FROM games WHERE id = $1`

	var g models.Game
	err := r.q.QueryRow(ctx, query, id).Scan(&g.ID, &g.Name, &g.Slug, &g.Description, &g.IsActive, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}
	return &g, nil
}

// List returns catalog games ordered by name
func (r *GameRepository) List(ctx context.Context, activeOnly bool) ([]*models.Game, error) {
	query := `
		SELECT id, name, slug, description, is_active, created_at
		FROM games
		WHERE is_active OR NOT $1
		ORDER BY name ASC
	`

	rows, err := r.q.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		var g models.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug, &g.Description, &g.IsActive, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, &g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", err)
	}

	return games, nil
}

// Upsert inserts a game or refreshes the one with the same slug
func (r *GameRepository) Upsert(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (name, slug, description, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name,
		    description = COALESCE(EXCLUDED.description, games.description),
		    is_active = EXCLUDED.is_active
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, game.Name, game.Slug, game.Description, game.IsActive).Scan(&game.ID, &game.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert game %q: %w", game.Slug, err)
	}

	return nil
}
