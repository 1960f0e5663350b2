package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"skillarena/events"
	"skillarena/models"
)

const (
	MinEntryFee int64 = 10
	MaxEntryFee int64 = 10000
)

type matchService struct {
	uowFactory         UnitOfWorkFactory
	platformFeePercent int64
}

// NewMatchService creates a new match service.
// platformFeePercent is the share of each pool kept by the platform.
func NewMatchService(uowFactory UnitOfWorkFactory, platformFeePercent int64) MatchService {
	return &matchService{
		uowFactory:         uowFactory,
		platformFeePercent: platformFeePercent,
	}
}

// PlatformFee returns the platform's cut of a pool, rounded down to a whole unit
func PlatformFee(pool, percent int64) int64 {
	if percent <= 0 {
		return 0
	}
	return decimal.NewFromInt(pool).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}

func (s *matchService) CreateMatch(ctx context.Context, hostID models.AccountID, params models.CreateMatchParams) (*models.Match, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, NewValidationError("title is required")
	}
	if params.EntryFee < MinEntryFee || params.EntryFee > MaxEntryFee {
		return nil, NewValidationError("entry fee must be between %d and %d", MinEntryFee, MaxEntryFee)
	}
	if params.StartTime.IsZero() {
		return nil, NewValidationError("start time is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	host, err := getAccount(ctx, uow, hostID)
	if err != nil {
		return nil, err
	}
	if !host.CanHost() {
		return nil, NewAuthorizationError("host verification is required to create matches")
	}

	game, err := uow.GameRepository().GetByID(ctx, params.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil || !game.IsActive {
		return nil, NewNotFoundError("game %d not found", params.GameID)
	}

	match := &models.Match{
		HostID:    hostID,
		GameID:    params.GameID,
		Title:     title,
		EntryFee:  params.EntryFee,
		StartTime: params.StartTime,
		StreamURL: params.StreamURL,
		Status:    models.MatchStatusOpen,
	}
	if err := uow.MatchRepository().Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	uow.EventBus().Publish(events.MatchStateChangeEvent{
		MatchID:  match.ID,
		Title:    match.Title,
		NewState: models.MatchStatusOpen,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchId":  match.ID,
		"hostId":   hostID,
		"gameId":   game.ID,
		"entryFee": match.EntryFee,
	}).Info("Match created")

	return match, nil
}

func (s *matchService) JoinMatch(ctx context.Context, userID models.AccountID, matchID models.MatchID) (*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	player, err := getAccount(ctx, uow, userID)
	if err != nil {
		return nil, err
	}
	if !player.CanPlay() {
		return nil, NewAuthorizationError("player verification is required to join matches")
	}

	match, err := s.lockMatch(ctx, uow, matchID)
	if err != nil {
		return nil, err
	}

	if match.HostID == userID {
		return nil, NewValidationError("hosts cannot join their own match")
	}
	if match.IsParticipant(userID) {
		return nil, NewConflictError("already joined this match")
	}
	if match.IsFull() {
		return nil, NewConflictError("match is full")
	}
	if match.Status != models.MatchStatusOpen {
		return nil, NewConflictError("match is %s", match.Status)
	}
	if player.WalletBalance < match.EntryFee {
		return nil, NewValidationError("insufficient balance: have %d, need %d", player.WalletBalance, match.EntryFee)
	}

	now := time.Now()
	entry := &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeMatchEntry,
		Method:      models.TransactionMethodSystem,
		Amount:      match.EntryFee,
		Status:      models.StatusApproved,
		MatchID:     &match.ID,
		ProcessedAt: &now,
	}
	if err := uow.TransactionRepository().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record entry fee: %w", err)
	}

	if _, err := debitWallet(ctx, uow, walletChange{
		UserID:        userID,
		Amount:        match.EntryFee,
		Type:          models.TransactionTypeMatchEntry,
		TransactionID: &entry.ID,
		Metadata:      map[string]any{"match_id": match.ID, "title": match.Title},
	}); err != nil {
		return nil, err
	}

	if match.Player1ID == nil {
		match.Player1ID = &userID
	} else {
		match.Player2ID = &userID
	}

	oldStatus := match.Status
	if match.IsFull() {
		match.Status = models.MatchStatusLive
	}

	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	if match.Status != oldStatus {
		uow.EventBus().Publish(events.MatchStateChangeEvent{
			MatchID:  match.ID,
			Title:    match.Title,
			OldState: oldStatus,
			NewState: match.Status,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchId": match.ID,
		"userId":  userID,
		"status":  match.Status,
	}).Info("Player joined match")

	return match, nil
}

func (s *matchService) DeclareWinner(ctx context.Context, hostID models.AccountID, matchID models.MatchID, winnerID models.AccountID) (*models.MatchResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := s.lockMatch(ctx, uow, matchID)
	if err != nil {
		return nil, err
	}
	if match.HostID != hostID {
		return nil, NewAuthorizationError("only the host can declare a winner")
	}
	if match.Status != models.MatchStatusLive {
		return nil, NewConflictError("match is %s, not live", match.Status)
	}

	result, err := s.payout(ctx, uow, match, winnerID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// payout completes a match: the winner receives the pool minus the platform fee
// and both players' statistics are updated.
func (s *matchService) payout(ctx context.Context, uow UnitOfWork, match *models.Match, winnerID models.AccountID) (*models.MatchResult, error) {
	if !match.IsParticipant(winnerID) {
		return nil, NewValidationError("winner must be one of the match's players")
	}

	pool := match.Pool()
	fee := PlatformFee(pool, s.platformFeePercent)
	prize := pool - fee

	result := &models.MatchResult{
		Match:       match,
		WinnerID:    winnerID,
		Pool:        pool,
		PlatformFee: fee,
		Payout:      prize,
	}

	if prize > 0 {
		now := time.Now()
		payoutTx := &models.Transaction{
			UserID:      winnerID,
			Type:        models.TransactionTypeMatchPayout,
			Method:      models.TransactionMethodSystem,
			Amount:      prize,
			Status:      models.StatusApproved,
			MatchID:     &match.ID,
			ProcessedAt: &now,
		}
		if err := uow.TransactionRepository().Create(ctx, payoutTx); err != nil {
			return nil, fmt.Errorf("failed to record payout: %w", err)
		}

		if _, err := creditWallet(ctx, uow, walletChange{
			UserID:        winnerID,
			Amount:        prize,
			Type:          models.TransactionTypeMatchPayout,
			TransactionID: &payoutTx.ID,
			Metadata: map[string]any{
				"match_id":     match.ID,
				"pool":         pool,
				"platform_fee": fee,
			},
		}); err != nil {
			return nil, err
		}
		result.PayoutTx = payoutTx
	}

	for _, playerID := range match.Players() {
		outcome := models.MatchOutcome{AccountID: playerID}
		if playerID == winnerID {
			outcome.Won = true
			outcome.Earnings = prize
		}
		if err := uow.AccountRepository().ApplyMatchOutcome(ctx, outcome); err != nil {
			return nil, fmt.Errorf("failed to update player statistics: %w", err)
		}
	}

	oldStatus := match.Status
	now := time.Now()
	match.WinnerID = &winnerID
	match.Status = models.MatchStatusCompleted
	match.CompletedAt = &now
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	uow.EventBus().Publish(events.MatchStateChangeEvent{
		MatchID:  match.ID,
		Title:    match.Title,
		OldState: oldStatus,
		NewState: match.Status,
	})

	log.WithFields(log.Fields{
		"matchId":     match.ID,
		"winnerId":    winnerID,
		"pool":        pool,
		"platformFee": fee,
		"payout":      prize,
	}).Info("Match paid out")

	return result, nil
}

func (s *matchService) CancelMatch(ctx context.Context, callerID models.AccountID, matchID models.MatchID) (*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	caller, err := getAccount(ctx, uow, callerID)
	if err != nil {
		return nil, err
	}

	match, err := s.lockMatch(ctx, uow, matchID)
	if err != nil {
		return nil, err
	}

	switch {
	case caller.IsAdmin():
		if !match.IsActive() {
			return nil, NewConflictError("match is already %s", match.Status)
		}
	case match.HostID == callerID:
		if match.Status != models.MatchStatusOpen {
			return nil, NewConflictError("hosts can only cancel open matches")
		}
	default:
		return nil, NewAuthorizationError("only the host or an admin can cancel this match")
	}

	if err := s.cancel(ctx, uow, match); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return match, nil
}

// cancel refunds every joined player's entry fee and marks the match cancelled
func (s *matchService) cancel(ctx context.Context, uow UnitOfWork, match *models.Match) error {
	for _, playerID := range match.Players() {
		now := time.Now()
		refund := &models.Transaction{
			UserID:      playerID,
			Type:        models.TransactionTypeRefund,
			Method:      models.TransactionMethodSystem,
			Amount:      match.EntryFee,
			Status:      models.StatusApproved,
			MatchID:     &match.ID,
			ProcessedAt: &now,
		}
		if err := uow.TransactionRepository().Create(ctx, refund); err != nil {
			return fmt.Errorf("failed to record refund: %w", err)
		}

		if _, err := creditWallet(ctx, uow, walletChange{
			UserID:        playerID,
			Amount:        match.EntryFee,
			Type:          models.TransactionTypeRefund,
			TransactionID: &refund.ID,
			Metadata:      map[string]any{"match_id": match.ID, "reason": "match_cancelled"},
		}); err != nil {
			return err
		}
	}

	oldStatus := match.Status
	match.Status = models.MatchStatusCancelled
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}

	uow.EventBus().Publish(events.MatchStateChangeEvent{
		MatchID:  match.ID,
		Title:    match.Title,
		OldState: oldStatus,
		NewState: match.Status,
	})

	log.WithFields(log.Fields{
		"matchId":  match.ID,
		"refunded": len(match.Players()),
	}).Info("Match cancelled")

	return nil
}

func (s *matchService) FlagDispute(ctx context.Context, callerID models.AccountID, matchID models.MatchID, reason string) (*models.Match, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, NewValidationError("a dispute reason is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := s.lockMatch(ctx, uow, matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsParticipant(callerID) {
		return nil, NewAuthorizationError("only players in this match can dispute it")
	}
	if match.Status != models.MatchStatusLive {
		return nil, NewConflictError("only live matches can be disputed")
	}

	match.Status = models.MatchStatusDisputed
	match.DisputeReason = &reason
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	uow.EventBus().Publish(events.MatchStateChangeEvent{
		MatchID:  match.ID,
		Title:    match.Title,
		OldState: models.MatchStatusLive,
		NewState: models.MatchStatusDisputed,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchId":  match.ID,
		"callerId": callerID,
	}).Warn("Match disputed")

	return match, nil
}

func (s *matchService) ResolveDispute(ctx context.Context, adminID models.AccountID, matchID models.MatchID, winnerID *models.AccountID) (*models.MatchResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}

	match, err := s.lockMatch(ctx, uow, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusDisputed {
		return nil, NewConflictError("match is %s, not disputed", match.Status)
	}

	var result *models.MatchResult
	if winnerID != nil {
		result, err = s.payout(ctx, uow, match, *winnerID)
		if err != nil {
			return nil, err
		}
	} else {
		if err := s.cancel(ctx, uow, match); err != nil {
			return nil, err
		}
		result = &models.MatchResult{Match: match, Pool: match.Pool()}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchId": matchID,
		"adminId": adminID,
		"status":  match.Status,
	}).Info("Dispute resolved")

	return result, nil
}

func (s *matchService) SweepStaleMatches(ctx context.Context, cutoff time.Time) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	stale, err := uow.MatchRepository().ListStaleOpen(ctx, cutoff)
	uow.Rollback()
	if err != nil {
		return 0, fmt.Errorf("failed to list stale matches: %w", err)
	}

	cancelled := 0
	for _, m := range stale {
		ok, err := s.sweepOne(ctx, m.ID, cutoff)
		if err != nil {
			log.WithFields(log.Fields{
				"matchId": m.ID,
				"error":   err,
			}).Error("Failed to cancel stale match")
			continue
		}
		if ok {
			cancelled++
		}
	}

	return cancelled, nil
}

// sweepOne cancels a single stale match if it is still open once locked
func (s *matchService) sweepOne(ctx context.Context, matchID models.MatchID, cutoff time.Time) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := s.lockMatch(ctx, uow, matchID)
	if err != nil {
		return false, err
	}
	if match.Status != models.MatchStatusOpen || !match.StartTime.Before(cutoff) {
		return false, nil
	}

	if err := s.cancel(ctx, uow, match); err != nil {
		return false, err
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID models.MatchID) (*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, NewNotFoundError("match %d not found", matchID)
	}
	return match, nil
}

func (s *matchService) ListOpenMatches(ctx context.Context, gameID *models.GameID) ([]*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matches, err := uow.MatchRepository().ListOpen(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open matches: %w", err)
	}
	return matches, nil
}

func (s *matchService) ListMyMatches(ctx context.Context, userID models.AccountID) ([]*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matches, err := uow.MatchRepository().ListByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func (s *matchService) lockMatch(ctx context.Context, uow UnitOfWork, matchID models.MatchID) (*models.Match, error) {
	match, err := uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, NewNotFoundError("match %d not found", matchID)
	}
	return match, nil
}
