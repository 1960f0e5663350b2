package service

import (
	"context"
	"time"

	"skillarena/events"
	"skillarena/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id models.AccountID) (*models.Account, error)

	// GetByIDForUpdate retrieves an account and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id models.AccountID) (*models.Account, error)

	// GetByEmail retrieves an account by email, case-insensitively
	GetByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetByUsername retrieves an account by username
	GetByUsername(ctx context.Context, username string) (*models.Account, error)

	// Create inserts a new account and fills in its generated fields
	Create(ctx context.Context, account *models.Account) error

	// AddBalance credits a wallet and returns the new balance
	AddBalance(ctx context.Context, id models.AccountID, amount int64) (int64, error)

	// DeductBalance debits a wallet only if it holds at least amount, returning ErrInsufficientBalance otherwise
	DeductBalance(ctx context.Context, id models.AccountID, amount int64) (int64, error)

	// UpdateVerificationLevel sets the account's verification level
	UpdateVerificationLevel(ctx context.Context, id models.AccountID, level models.VerificationLevel) error

	// UpdateProfile stores the identity captured during player verification
	UpdateProfile(ctx context.Context, id models.AccountID, fullName string, dateOfBirth time.Time) error

	// UpdateRole sets the account's role
	UpdateRole(ctx context.Context, id models.AccountID, role models.Role) error

	// ApplyMatchOutcome bumps match statistics for one player
	ApplyMatchOutcome(ctx context.Context, outcome models.MatchOutcome) error

	// GetLiability returns the number of accounts and the sum of all wallet balances
	GetLiability(ctx context.Context) (accounts int, total int64, err error)
}

// TransactionRepository defines the interface for ledger data access
type TransactionRepository interface {
	// Create inserts a transaction and fills in its generated fields
	Create(ctx context.Context, tx *models.Transaction) error

	// GetByID retrieves a transaction by its ID
	GetByID(ctx context.Context, id models.TransactionID) (*models.Transaction, error)

	// GetByUTRID retrieves a transaction by its UTR or gateway order id
	GetByUTRID(ctx context.Context, utrID string) (*models.Transaction, error)

	// HasPendingWithdrawal reports whether the user already has a withdrawal awaiting review
	HasPendingWithdrawal(ctx context.Context, userID models.AccountID) (bool, error)

	// Settle moves a pending transaction to a terminal status.
	// Returns nil if the transaction was no longer pending.
	Settle(ctx context.Context, settlement models.Settlement) (*models.Transaction, error)

	// List returns transactions matching the filter, newest first
	List(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error)

	// CountPending returns the number of pending transactions of a type
	CountPending(ctx context.Context, txType models.TransactionType) (int, error)
}

// MatchRepository defines the interface for match data access
type MatchRepository interface {
	// Create inserts a new match and fills in its generated fields
	Create(ctx context.Context, match *models.Match) error

	// GetByID retrieves a match by its ID
	GetByID(ctx context.Context, id models.MatchID) (*models.Match, error)

	// GetByIDForUpdate retrieves a match and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id models.MatchID) (*models.Match, error)

	// Update persists the mutable fields of a match
	Update(ctx context.Context, match *models.Match) error

	// ListOpen returns open matches, optionally for a single game
	ListOpen(ctx context.Context, gameID *models.GameID) ([]*models.Match, error)

	// ListByParticipant returns matches the account hosts or plays in
	ListByParticipant(ctx context.Context, accountID models.AccountID) ([]*models.Match, error)

	// ListStaleOpen returns open matches whose start time is before the cutoff
	ListStaleOpen(ctx context.Context, cutoff time.Time) ([]*models.Match, error)

	// CountByStatus returns the number of matches in a status
	CountByStatus(ctx context.Context, status models.MatchStatus) (int, error)
}

// VerificationRepository defines the interface for verification request data access
type VerificationRepository interface {
	// Create inserts a new request and fills in its generated fields
	Create(ctx context.Context, req *models.VerificationRequest) error

	// GetByID retrieves a request by its ID
	GetByID(ctx context.Context, id models.VerificationRequestID) (*models.VerificationRequest, error)

	// GetPendingByUser returns the user's pending request, if any
	GetPendingByUser(ctx context.Context, userID models.AccountID) (*models.VerificationRequest, error)

	// GetLatestByUser returns the user's most recent request, if any
	GetLatestByUser(ctx context.Context, userID models.AccountID) (*models.VerificationRequest, error)

	// Resolve moves a pending request to a terminal status. Returns false if it was no longer pending.
	Resolve(ctx context.Context, req *models.VerificationRequest) (bool, error)

	// ListByStatus returns requests in a status, oldest first
	ListByStatus(ctx context.Context, status models.RequestStatus) ([]*models.VerificationRequest, error)
}

// TicketRepository defines the interface for support ticket data access
type TicketRepository interface {
	// Create inserts a new ticket and fills in its generated fields
	Create(ctx context.Context, ticket *models.SupportTicket) error

	// GetByID retrieves a ticket by its ID
	GetByID(ctx context.Context, id models.TicketID) (*models.SupportTicket, error)

	// Update persists a ticket's status and admin response
	Update(ctx context.Context, ticket *models.SupportTicket) error

	// List returns tickets, optionally filtered by status
	List(ctx context.Context, status *models.TicketStatus) ([]*models.SupportTicket, error)

	// ListByUser returns the tickets a user filed
	ListByUser(ctx context.Context, userID models.AccountID) ([]*models.SupportTicket, error)

	// CountByStatus returns the number of tickets in a status
	CountByStatus(ctx context.Context, status models.TicketStatus) (int, error)
}

// GameRepository defines the interface for the games catalog
type GameRepository interface {
	// GetByID retrieves a game by its ID
	GetByID(ctx context.Context, id models.GameID) (*models.Game, error)

	// List returns catalog games, optionally only the active ones
	List(ctx context.Context, activeOnly bool) ([]*models.Game, error)

	// Upsert inserts a game or updates the one with the same slug
	Upsert(ctx context.Context, game *models.Game) error
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for a specific user
	GetByUser(ctx context.Context, userID models.AccountID, limit int) ([]*models.BalanceHistory, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes queued events
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	TransactionRepository() TransactionRepository
	MatchRepository() MatchRepository
	VerificationRepository() VerificationRepository
	TicketRepository() TicketRepository
	GameRepository() GameRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// PaymentGateway is the hosted checkout provider
type PaymentGateway interface {
	// CreateOrder opens a checkout session for a deposit
	CreateOrder(ctx context.Context, req models.GatewayOrderRequest) (*models.GatewayOrder, error)

	// FetchOrderStatus asks the gateway whether an order has been paid
	FetchOrderStatus(ctx context.Context, orderID string) (models.GatewayOrderStatus, error)

	// ParseWebhook verifies a webhook's signature and decodes its payload
	ParseWebhook(signature, timestamp string, body []byte) (*models.GatewayWebhook, error)
}

// DocumentStore keeps identity documents uploaded for verification
type DocumentStore interface {
	// Put stores a document under the owner's prefix and returns its key
	Put(ctx context.Context, owner models.AccountID, doc *models.Document) (string, error)

	// Delete removes a stored document
	Delete(ctx context.Context, key string) error
}

// AccountService defines the interface for account operations
type AccountService interface {
	// RegisterAccount creates an account awaiting email confirmation
	RegisterAccount(ctx context.Context, email, username string) (*models.Account, error)

	// GetAccount returns an account by ID
	GetAccount(ctx context.Context, id models.AccountID) (*models.Account, error)

	// SetRole changes another account's role
	SetRole(ctx context.Context, adminID, userID models.AccountID, role models.Role) (*models.Account, error)

	// PromoteToAdmin grants the admin role by email
	PromoteToAdmin(ctx context.Context, email string) (*models.Account, error)
}

// WalletService defines the interface for the manual deposit and withdrawal ledger
type WalletService interface {
	// RequestDeposit records a manual deposit awaiting review
	RequestDeposit(ctx context.Context, userID models.AccountID, amount int64, utrID string, uniqueAmount *int64) (*models.Transaction, error)

	// RequestWithdrawal reserves funds and records a withdrawal awaiting review
	RequestWithdrawal(ctx context.Context, userID models.AccountID, amount int64, destination string) (*models.Transaction, error)

	// ApproveTransaction settles a pending deposit or withdrawal as approved
	ApproveTransaction(ctx context.Context, adminID models.AccountID, txID models.TransactionID, notes *string) (*models.SettlementResult, error)

	// RejectTransaction settles a pending deposit or withdrawal as rejected
	RejectTransaction(ctx context.Context, adminID models.AccountID, txID models.TransactionID, notes *string) (*models.SettlementResult, error)

	// GetWallet returns the balance and recent transactions
	GetWallet(ctx context.Context, userID models.AccountID) (*models.Wallet, error)

	// ListTransactions returns the user's most recent transactions
	ListTransactions(ctx context.Context, userID models.AccountID, limit int) ([]*models.Transaction, error)

	// ListPendingTransactions returns the review queue
	ListPendingTransactions(ctx context.Context, adminID models.AccountID, txType *models.TransactionType) ([]*models.Transaction, error)
}

// PaymentService defines the interface for gateway-backed deposits
type PaymentService interface {
	// CreateGatewayDeposit opens a checkout session and records a pending deposit
	CreateGatewayDeposit(ctx context.Context, userID models.AccountID, amount int64) (*models.GatewayDeposit, error)

	// VerifyGatewayDeposit polls the gateway and settles the caller's deposit
	VerifyGatewayDeposit(ctx context.Context, userID models.AccountID, orderID string) (*models.SettlementResult, error)

	// HandleWebhook verifies and applies a gateway notification
	HandleWebhook(ctx context.Context, signature, timestamp string, body []byte) (*models.SettlementResult, error)

	// ReconcilePendingGatewayDeposits re-polls gateway deposits still pending since before the cutoff
	ReconcilePendingGatewayDeposits(ctx context.Context, olderThan time.Time) (int, error)
}

// VerificationService defines the interface for verification-level transitions
type VerificationService interface {
	// ConfirmEmail advances an account past pending_email
	ConfirmEmail(ctx context.Context, userID models.AccountID) (*models.Account, error)

	// RequestPlayerVerification files a request for the player level
	RequestPlayerVerification(ctx context.Context, userID models.AccountID, fullName string, dateOfBirth time.Time, doc *models.Document) (*models.VerificationRequest, error)

	// RequestHostVerification files a request for the host level
	RequestHostVerification(ctx context.Context, userID models.AccountID, doc *models.Document) (*models.VerificationRequest, error)

	// ApproveVerification approves a pending request and raises the account's level
	ApproveVerification(ctx context.Context, adminID models.AccountID, requestID models.VerificationRequestID) (*models.VerificationRequest, error)

	// RejectVerification rejects a pending request with a reason
	RejectVerification(ctx context.Context, adminID models.AccountID, requestID models.VerificationRequestID, reason string) (*models.VerificationRequest, error)

	// ListPendingVerifications returns the review queue
	ListPendingVerifications(ctx context.Context, adminID models.AccountID) ([]*models.VerificationRequest, error)

	// GetMyVerification returns the caller's level and latest request
	GetMyVerification(ctx context.Context, userID models.AccountID) (*models.VerificationStatus, error)
}

// MatchService defines the interface for match lifecycle operations
type MatchService interface {
	// CreateMatch opens a new match hosted by the caller
	CreateMatch(ctx context.Context, hostID models.AccountID, params models.CreateMatchParams) (*models.Match, error)

	// JoinMatch takes a player slot and charges the entry fee
	JoinMatch(ctx context.Context, userID models.AccountID, matchID models.MatchID) (*models.Match, error)

	// DeclareWinner completes a live match and pays the winner
	DeclareWinner(ctx context.Context, hostID models.AccountID, matchID models.MatchID, winnerID models.AccountID) (*models.MatchResult, error)

	// CancelMatch cancels a match and refunds every joined player
	CancelMatch(ctx context.Context, callerID models.AccountID, matchID models.MatchID) (*models.Match, error)

	// FlagDispute marks a live match as disputed
	FlagDispute(ctx context.Context, callerID models.AccountID, matchID models.MatchID, reason string) (*models.Match, error)

	// ResolveDispute pays the named winner or refunds both players when winnerID is nil
	ResolveDispute(ctx context.Context, adminID models.AccountID, matchID models.MatchID, winnerID *models.AccountID) (*models.MatchResult, error)

	// SweepStaleMatches cancels open matches that never filled before the cutoff
	SweepStaleMatches(ctx context.Context, cutoff time.Time) (int, error)

	// GetMatch returns a match by ID
	GetMatch(ctx context.Context, matchID models.MatchID) (*models.Match, error)

	// ListOpenMatches returns joinable matches
	ListOpenMatches(ctx context.Context, gameID *models.GameID) ([]*models.Match, error)

	// ListMyMatches returns matches the caller hosts or plays in
	ListMyMatches(ctx context.Context, userID models.AccountID) ([]*models.Match, error)
}

// SupportService defines the interface for support tickets
type SupportService interface {
	// CreateTicket files a ticket, optionally on behalf of a signed-in account
	CreateTicket(ctx context.Context, callerID *models.AccountID, email, subject, message string) (*models.SupportTicket, error)

	// UpdateTicketStatus advances a ticket and stores the admin response
	UpdateTicketStatus(ctx context.Context, adminID models.AccountID, ticketID models.TicketID, status models.TicketStatus, response *string) (*models.SupportTicket, error)

	// ListTickets returns tickets for the admin console
	ListTickets(ctx context.Context, adminID models.AccountID, status *models.TicketStatus) ([]*models.SupportTicket, error)

	// ListMyTickets returns the caller's tickets
	ListMyTickets(ctx context.Context, userID models.AccountID) ([]*models.SupportTicket, error)
}

// AdminService defines the interface for admin console reads
type AdminService interface {
	// Dashboard returns queue sizes and wallet liability
	Dashboard(ctx context.Context, adminID models.AccountID) (*models.DashboardStats, error)
}

// GameService defines the interface for the games catalog
type GameService interface {
	// ListGames returns the active catalog
	ListGames(ctx context.Context) ([]*models.Game, error)

	// SeedGames inserts or refreshes catalog entries by name
	SeedGames(ctx context.Context, names []string) ([]*models.Game, error)
}
