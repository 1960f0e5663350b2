package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"skillarena/events"
	"skillarena/models"
)

type verificationService struct {
	uowFactory UnitOfWorkFactory
	documents  DocumentStore
}

// NewVerificationService creates a new verification service.
// documents may be nil, in which case requests carrying a document are rejected.
func NewVerificationService(uowFactory UnitOfWorkFactory, documents DocumentStore) VerificationService {
	return &verificationService{
		uowFactory: uowFactory,
		documents:  documents,
	}
}

func (s *verificationService) ConfirmEmail(ctx context.Context, userID models.AccountID) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, NewNotFoundError("account %d not found", userID)
	}

	if account.VerificationLevel != models.VerificationLevelPendingEmail {
		return account, nil
	}

	if err := uow.AccountRepository().UpdateVerificationLevel(ctx, userID, models.VerificationLevelUnverified); err != nil {
		return nil, fmt.Errorf("failed to confirm email: %w", err)
	}
	account.VerificationLevel = models.VerificationLevelUnverified

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("userId", userID).Info("Email confirmed")

	return account, nil
}

func (s *verificationService) RequestPlayerVerification(ctx context.Context, userID models.AccountID, fullName string, dateOfBirth time.Time, doc *models.Document) (*models.VerificationRequest, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, NewValidationError("full name is required")
	}
	if dateOfBirth.IsZero() {
		return nil, NewValidationError("date of birth is required")
	}
	if AgeOn(dateOfBirth, time.Now()) < MinimumPlayerAge {
		return nil, NewValidationError("you must be at least %d years old to play", MinimumPlayerAge)
	}

	return s.request(ctx, userID, models.VerificationLevelPlayer, doc, func(ctx context.Context, uow UnitOfWork, req *models.VerificationRequest) error {
		req.FullName = &fullName
		req.DateOfBirth = &dateOfBirth
		return uow.AccountRepository().UpdateProfile(ctx, userID, fullName, dateOfBirth)
	})
}

func (s *verificationService) RequestHostVerification(ctx context.Context, userID models.AccountID, doc *models.Document) (*models.VerificationRequest, error) {
	return s.request(ctx, userID, models.VerificationLevelHost, doc, nil)
}

// request files a pending request for the level directly above the account's current one
func (s *verificationService) request(ctx context.Context, userID models.AccountID, level models.VerificationLevel, doc *models.Document, prepare func(context.Context, UnitOfWork, *models.VerificationRequest) error) (*models.VerificationRequest, error) {
	if doc != nil && s.documents == nil {
		return nil, NewValidationError("document uploads are not available")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := getAccount(ctx, uow, userID)
	if err != nil {
		return nil, err
	}

	// One open request per account, whatever level it targets
	pending, err := uow.VerificationRepository().GetPendingByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending verification: %w", err)
	}
	if pending != nil {
		return nil, NewConflictError("a verification request is already pending")
	}

	if account.VerificationLevel.AtLeast(level) {
		return nil, NewConflictError("account is already verified as %s", account.VerificationLevel)
	}
	if next, _ := account.VerificationLevel.Next(); next != level {
		return nil, NewValidationError("%s verification requires level %s first", level, previousLevel(level))
	}

	req := &models.VerificationRequest{
		UserID:         userID,
		RequestedLevel: level,
		Status:         models.StatusPending,
	}

	if prepare != nil {
		if err := prepare(ctx, uow, req); err != nil {
			return nil, fmt.Errorf("failed to prepare verification request: %w", err)
		}
	}

	committed := false
	if doc != nil {
		key, err := s.documents.Put(ctx, userID, doc)
		if err != nil {
			return nil, fmt.Errorf("failed to store verification document: %w", err)
		}
		req.DocumentKey = &key
		defer func() {
			if !committed {
				s.discardDocument(ctx, key)
			}
		}()
	}

	if err := uow.VerificationRepository().Create(ctx, req); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.VerificationRequestedEvent{
		RequestID:      req.ID,
		UserID:         userID,
		Username:       account.Username,
		RequestedLevel: level,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	log.WithFields(log.Fields{
		"userId":    userID,
		"requestId": req.ID,
		"level":     level,
	}).Info("Verification requested")

	return req, nil
}

// discardDocument removes an uploaded document whose request was never saved
func (s *verificationService) discardDocument(ctx context.Context, key string) {
	if err := s.documents.Delete(context.WithoutCancel(ctx), key); err != nil {
		log.WithFields(log.Fields{
			"key":   key,
			"error": err,
		}).Warn("Failed to remove orphaned verification document")
	}
}

func previousLevel(level models.VerificationLevel) models.VerificationLevel {
	for _, l := range []models.VerificationLevel{
		models.VerificationLevelPendingEmail,
		models.VerificationLevelUnverified,
		models.VerificationLevelPlayer,
	} {
		if next, _ := l.Next(); next == level {
			return l
		}
	}
	return level
}

func (s *verificationService) ApproveVerification(ctx context.Context, adminID models.AccountID, requestID models.VerificationRequestID) (*models.VerificationRequest, error) {
	return s.resolve(ctx, adminID, requestID, models.StatusApproved, nil)
}

func (s *verificationService) RejectVerification(ctx context.Context, adminID models.AccountID, requestID models.VerificationRequestID, reason string) (*models.VerificationRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, NewValidationError("a rejection reason is required")
	}
	return s.resolve(ctx, adminID, requestID, models.StatusRejected, &reason)
}

func (s *verificationService) resolve(ctx context.Context, adminID models.AccountID, requestID models.VerificationRequestID, status models.RequestStatus, reason *string) (*models.VerificationRequest, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}

	req, err := uow.VerificationRepository().GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get verification request: %w", err)
	}
	if req == nil {
		return nil, NewNotFoundError("verification request %d not found", requestID)
	}
	if req.Status != models.StatusPending {
		return nil, NewConflictError("verification request %d is already %s", requestID, req.Status)
	}

	account, err := uow.AccountRepository().GetByIDForUpdate(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, NewNotFoundError("account %d not found", req.UserID)
	}

	req.Status = status
	req.RejectionReason = reason
	req.ReviewedBy = &adminID
	ok, err := uow.VerificationRepository().Resolve(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve verification request: %w", err)
	}
	if !ok {
		return nil, NewConflictError("verification request %d was already resolved", requestID)
	}

	newLevel := account.VerificationLevel
	if status == models.StatusApproved {
		// Levels never regress, even if the account advanced some other way meanwhile
		newLevel = models.MaxLevel(account.VerificationLevel, req.RequestedLevel)
		if newLevel != account.VerificationLevel {
			if err := uow.AccountRepository().UpdateVerificationLevel(ctx, account.ID, newLevel); err != nil {
				return nil, fmt.Errorf("failed to update verification level: %w", err)
			}
		}
	}

	uow.EventBus().Publish(events.VerificationResolvedEvent{
		RequestID: req.ID,
		UserID:    req.UserID,
		Status:    status,
		NewLevel:  newLevel,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"requestId": requestID,
		"userId":    req.UserID,
		"status":    status,
		"level":     newLevel,
		"adminId":   adminID,
	}).Info("Verification request resolved")

	return req, nil
}

func (s *verificationService) ListPendingVerifications(ctx context.Context, adminID models.AccountID) ([]*models.VerificationRequest, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}

	reqs, err := uow.VerificationRepository().ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending verifications: %w", err)
	}
	return reqs, nil
}

func (s *verificationService) GetMyVerification(ctx context.Context, userID models.AccountID) (*models.VerificationStatus, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := getAccount(ctx, uow, userID)
	if err != nil {
		return nil, err
	}

	latest, err := uow.VerificationRepository().GetLatestByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest verification: %w", err)
	}

	return &models.VerificationStatus{Level: account.VerificationLevel, LatestRequest: latest}, nil
}
