package models

import (
	"time"
)

// BalanceHistory represents a historical wallet balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	UserID              AccountID       `db:"user_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	TransactionID       *TransactionID  `db:"transaction_id"`
	CreatedAt           time.Time       `db:"created_at"`
}
