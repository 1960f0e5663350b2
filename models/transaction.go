package models

import (
	"time"
)

// TransactionType is the kind of ledger event
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdrawal  TransactionType = "withdrawal"
	TransactionTypeMatchEntry  TransactionType = "match_entry"
	TransactionTypeMatchPayout TransactionType = "match_payout"
	TransactionTypeRefund      TransactionType = "refund"
)

// IsValid reports whether t is a known ledger type
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeMatchEntry,
		TransactionTypeMatchPayout, TransactionTypeRefund:
		return true
	}
	return false
}

// TransactionMethod records how a transaction entered the ledger
type TransactionMethod string

const (
	TransactionMethodManual  TransactionMethod = "manual"
	TransactionMethodGateway TransactionMethod = "gateway"
	TransactionMethodSystem  TransactionMethod = "system"
)

// Transaction is a ledger row. Pending rows are settled exactly once.
type Transaction struct {
	ID           TransactionID     `db:"id" json:"id"`
	UserID       AccountID         `db:"user_id" json:"userId"`
	Type         TransactionType   `db:"type" json:"type"`
	Method       TransactionMethod `db:"method" json:"method"`
	Amount       int64             `db:"amount" json:"amount"`
	Status       RequestStatus     `db:"status" json:"status"`
	UTRID        *string           `db:"utr_id" json:"utrId,omitempty"`
	UniqueAmount *int64            `db:"unique_amount" json:"uniqueAmount,omitempty"`
	Destination  *string           `db:"destination" json:"destination,omitempty"`
	MatchID      *MatchID          `db:"match_id" json:"matchId,omitempty"`
	AdminNotes   *string           `db:"admin_notes" json:"adminNotes,omitempty"`
	ProcessedBy  *AccountID        `db:"processed_by" json:"processedBy,omitempty"`
	ProcessedAt  *time.Time        `db:"processed_at" json:"processedAt,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"createdAt"`
}

// IsPending reports whether the transaction still awaits settlement
func (t *Transaction) IsPending() bool {
	return t.Status == StatusPending
}

// TransactionFilter narrows ledger listings
type TransactionFilter struct {
	UserID *AccountID
	Type   *TransactionType
	Status *RequestStatus
	Method *TransactionMethod
	// CreatedBefore limits results to rows older than the given time
	CreatedBefore *time.Time
	Limit         int
}

// Settlement describes the terminal transition applied to a pending transaction
type Settlement struct {
	TransactionID TransactionID
	Status        RequestStatus
	Notes         *string
	ProcessedBy   *AccountID
}

// SettlementResult is returned by approve/reject operations
type SettlementResult struct {
	Transaction *Transaction `json:"transaction"`
	NewBalance  int64        `json:"newBalance"`
	// AlreadySettled is true when the transaction was terminal before this call
	AlreadySettled bool `json:"alreadySettled"`
}

// Wallet is the caller's balance with recent ledger activity
type Wallet struct {
	Balance      int64          `json:"balance"`
	Transactions []*Transaction `json:"transactions"`
}
