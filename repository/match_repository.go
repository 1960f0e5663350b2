package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"skillarena/database"
	"skillarena/models"
)

const matchColumns = `
	id, host_id, game_id, title, entry_fee, start_time, stream_url, status,
	player1_id, player2_id, winner_id, dispute_reason, created_at, updated_at, completed_at`

// MatchRepository implements the MatchRepository interface
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a new match repository with a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID,
		&m.HostID,
		&m.GameID,
		&m.Title,
		&m.EntryFee,
		&m.StartTime,
		&m.StreamURL,
		&m.Status,
		&m.Player1ID,
		&m.Player2ID,
		&m.WinnerID,
		&m.DisputeReason,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MatchRepository) queryMatches(ctx context.Context, query string, args ...any) ([]*models.Match, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// Create inserts a new match
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (host_id, game_id, title, entry_fee, start_time, stream_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		match.HostID,
		match.GameID,
		match.Title,
		match.EntryFee,
		match.StartTime,
		match.StreamURL,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create match %q: %w", match.Title, err)
	}

	return nil
}

// GetByID retrieves a match by its ID
func (r *MatchRepository) GetByID(ctx context.Context, id models.MatchID) (*models.Match, error) {
	m, err := scanMatch(r.q.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return m, nil
}

// GetByIDForUpdate retrieves a match and locks its row
func (r *MatchRepository) GetByIDForUpdate(ctx context.Context, id models.MatchID) (*models.Match, error) {
	m, err := scanMatch(r.q.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock match %d: %w", id, err)
	}
	return m, nil
}

// Update persists the mutable fields of a match
func (r *MatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches
		SET status = $1, player1_id = $2, player2_id = $3, winner_id = $4,
		    dispute_reason = $5, completed_at = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		match.Status,
		match.Player1ID,
		match.Player2ID,
		match.WinnerID,
		match.DisputeReason,
		match.CompletedAt,
		match.ID,
	).Scan(&match.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("match %d not found", match.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", match.ID, err)
	}

	return nil
}

// ListOpen returns open matches, soonest first
func (r *MatchRepository) ListOpen(ctx context.Context, gameID *models.GameID) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = 'open' AND ($1::bigint IS NULL OR game_id = $1)
		ORDER BY start_time ASC
	`

	matches, err := r.queryMatches(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open matches: %w", err)
	}
	return matches, nil
}

// ListByParticipant returns matches the account hosts or plays in
func (r *MatchRepository) ListByParticipant(ctx context.Context, accountID models.AccountID) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE host_id = $1 OR player1_id = $1 OR player2_id = $1
		ORDER BY start_time DESC
	`

	matches, err := r.queryMatches(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for account %d: %w", accountID, err)
	}
	return matches, nil
}

// ListStaleOpen returns open matches whose start time is before the cutoff
func (r *MatchRepository) ListStaleOpen(ctx context.Context, cutoff time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = 'open' AND start_time < $1
		ORDER BY start_time ASC
	`

	matches, err := r.queryMatches(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale matches: %w", err)
	}
	return matches, nil
}

// CountByStatus returns the number of matches in a status
func (r *MatchRepository) CountByStatus(ctx context.Context, status models.MatchStatus) (int, error) {
	var count int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM matches WHERE status = $1`, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s matches: %w", status, err)
	}
	return count, nil
}
