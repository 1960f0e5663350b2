package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"skillarena/events"
	"skillarena/models"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id models.AccountID) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, id models.AccountID) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) AddBalance(ctx context.Context, id models.AccountID, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) DeductBalance(ctx context.Context, id models.AccountID, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) UpdateVerificationLevel(ctx context.Context, id models.AccountID, level models.VerificationLevel) error {
	args := m.Called(ctx, id, level)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateProfile(ctx context.Context, id models.AccountID, fullName string, dateOfBirth time.Time) error {
	args := m.Called(ctx, id, fullName, dateOfBirth)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateRole(ctx context.Context, id models.AccountID, role models.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockAccountRepository) ApplyMatchOutcome(ctx context.Context, outcome models.MatchOutcome) error {
	args := m.Called(ctx, outcome)
	return args.Error(0)
}

func (m *MockAccountRepository) GetLiability(ctx context.Context) (int, int64, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Get(1).(int64), args.Error(2)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id models.TransactionID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByUTRID(ctx context.Context, utrID string) (*models.Transaction, error) {
	args := m.Called(ctx, utrID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) HasPendingWithdrawal(ctx context.Context, userID models.AccountID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) Settle(ctx context.Context, settlement models.Settlement) (*models.Transaction, error) {
	args := m.Called(ctx, settlement)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountPending(ctx context.Context, txType models.TransactionType) (int, error) {
	args := m.Called(ctx, txType)
	return args.Int(0), args.Error(1)
}

// MockMatchRepository is a mock implementation of MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id models.MatchID) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetByIDForUpdate(ctx context.Context, id models.MatchID) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) Update(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) ListOpen(ctx context.Context, gameID *models.GameID) ([]*models.Match, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) ListByParticipant(ctx context.Context, accountID models.AccountID) ([]*models.Match, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) ListStaleOpen(ctx context.Context, cutoff time.Time) ([]*models.Match, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) CountByStatus(ctx context.Context, status models.MatchStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

// MockVerificationRepository is a mock implementation of VerificationRepository
type MockVerificationRepository struct {
	mock.Mock
}

func (m *MockVerificationRepository) Create(ctx context.Context, req *models.VerificationRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockVerificationRepository) GetByID(ctx context.Context, id models.VerificationRequestID) (*models.VerificationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationRequest), args.Error(1)
}

func (m *MockVerificationRepository) GetPendingByUser(ctx context.Context, userID models.AccountID) (*models.VerificationRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationRequest), args.Error(1)
}

func (m *MockVerificationRepository) GetLatestByUser(ctx context.Context, userID models.AccountID) (*models.VerificationRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationRequest), args.Error(1)
}

func (m *MockVerificationRepository) Resolve(ctx context.Context, req *models.VerificationRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockVerificationRepository) ListByStatus(ctx context.Context, status models.RequestStatus) ([]*models.VerificationRequest, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.VerificationRequest), args.Error(1)
}

// MockTicketRepository is a mock implementation of TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *models.SupportTicket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id models.TicketID) (*models.SupportTicket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportTicket), args.Error(1)
}

func (m *MockTicketRepository) Update(ctx context.Context, ticket *models.SupportTicket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketRepository) List(ctx context.Context, status *models.TicketStatus) ([]*models.SupportTicket, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SupportTicket), args.Error(1)
}

func (m *MockTicketRepository) ListByUser(ctx context.Context, userID models.AccountID) ([]*models.SupportTicket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SupportTicket), args.Error(1)
}

func (m *MockTicketRepository) CountByStatus(ctx context.Context, status models.TicketStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

// MockGameRepository is a mock implementation of GameRepository
type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) GetByID(ctx context.Context, id models.GameID) (*models.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGameRepository) List(ctx context.Context, activeOnly bool) ([]*models.Game, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Game), args.Error(1)
}

func (m *MockGameRepository) Upsert(ctx context.Context, game *models.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID models.AccountID, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	Events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Events = append(m.Events, event)
}

// OfType returns the published events of a given type
func (m *MockEventPublisher) OfType(t events.EventType) []events.Event {
	var out []events.Event
	for _, e := range m.Events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

// MockUnitOfWork is a mock implementation of UnitOfWork.
// Repository getters return the exported mocks.
type MockUnitOfWork struct {
	mock.Mock
	Accounts       *MockAccountRepository
	Transactions   *MockTransactionRepository
	Matches        *MockMatchRepository
	Verifications  *MockVerificationRepository
	Tickets        *MockTicketRepository
	Games          *MockGameRepository
	BalanceHistory *MockBalanceHistoryRepository
	Events         *MockEventPublisher
}

// NewMockUnitOfWork returns a unit of work with a fresh mock for every repository
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		Accounts:       new(MockAccountRepository),
		Transactions:   new(MockTransactionRepository),
		Matches:        new(MockMatchRepository),
		Verifications:  new(MockVerificationRepository),
		Tickets:        new(MockTicketRepository),
		Games:          new(MockGameRepository),
		BalanceHistory: new(MockBalanceHistoryRepository),
		Events:         new(MockEventPublisher),
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.Accounts
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.Transactions
}

func (m *MockUnitOfWork) MatchRepository() MatchRepository {
	return m.Matches
}

func (m *MockUnitOfWork) VerificationRepository() VerificationRepository {
	return m.Verifications
}

func (m *MockUnitOfWork) TicketRepository() TicketRepository {
	return m.Tickets
}

func (m *MockUnitOfWork) GameRepository() GameRepository {
	return m.Games
}

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.BalanceHistory
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.Events
}

// AssertRepositories verifies expectations on every repository mock
func (m *MockUnitOfWork) AssertRepositories(t mock.TestingT) {
	m.Accounts.AssertExpectations(t)
	m.Transactions.AssertExpectations(t)
	m.Matches.AssertExpectations(t)
	m.Verifications.AssertExpectations(t)
	m.Tickets.AssertExpectations(t)
	m.Games.AssertExpectations(t)
	m.BalanceHistory.AssertExpectations(t)
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockPaymentGateway is a mock implementation of PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, req models.GatewayOrderRequest) (*models.GatewayOrder, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GatewayOrder), args.Error(1)
}

func (m *MockPaymentGateway) FetchOrderStatus(ctx context.Context, orderID string) (models.GatewayOrderStatus, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(models.GatewayOrderStatus), args.Error(1)
}

func (m *MockPaymentGateway) ParseWebhook(signature, timestamp string, body []byte) (*models.GatewayWebhook, error) {
	args := m.Called(signature, timestamp, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GatewayWebhook), args.Error(1)
}

// MockDocumentStore is a mock implementation of DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Put(ctx context.Context, owner models.AccountID, doc *models.Document) (string, error) {
	args := m.Called(ctx, owner, doc)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
