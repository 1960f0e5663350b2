package models

import (
	"time"
)

// Role controls access to the admin console
type Role string

const (
	RoleUser   Role = "user"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleMember, RoleAdmin:
		return true
	}
	return false
}

// Account is the single mutable aggregate for wallet balance, verification level and match stats
type Account struct {
	ID                AccountID         `db:"id" json:"id"`
	Email             string            `db:"email" json:"email"`
	Username          string            `db:"username" json:"username"`
	Role              Role              `db:"role" json:"role"`
	VerificationLevel VerificationLevel `db:"verification_level" json:"verificationLevel"`
	WalletBalance     int64             `db:"wallet_balance" json:"walletBalance"`
	TotalMatches      int               `db:"total_matches" json:"totalMatches"`
	TotalWins         int               `db:"total_wins" json:"totalWins"`
	TotalEarnings     int64             `db:"total_earnings" json:"totalEarnings"`
	FullName          *string           `db:"full_name" json:"fullName,omitempty"`
	DateOfBirth       *time.Time        `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether the account may use the admin console
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanHost reports whether the account may create matches
func (a *Account) CanHost() bool {
	return a.VerificationLevel == VerificationLevelHost
}

// CanPlay reports whether the account may join matches
func (a *Account) CanPlay() bool {
	return a.VerificationLevel.AtLeast(VerificationLevelPlayer)
}

// MatchOutcome is the stats delta applied to a player when a match completes
type MatchOutcome struct {
	AccountID AccountID
	Won       bool
	Earnings  int64
}
