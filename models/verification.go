package models

import (
	"fmt"
	"time"
)

// VerificationLevel is an account's progression gate. Levels are ordered:
// pending_email < unverified < player < host.
type VerificationLevel string

const (
	VerificationLevelPendingEmail VerificationLevel = "pending_email"
	VerificationLevelUnverified   VerificationLevel = "unverified"
	VerificationLevelPlayer       VerificationLevel = "player"
	VerificationLevelHost         VerificationLevel = "host"
)

var verificationLevelRank = map[VerificationLevel]int{
	VerificationLevelPendingEmail: 0,
	VerificationLevelUnverified:   1,
	VerificationLevelPlayer:       2,
	VerificationLevelHost:         3,
}

// legacyVerificationLevels maps the numbered level names still found in older records
var legacyVerificationLevels = map[string]VerificationLevel{
	"level_1_verified": VerificationLevelUnverified,
	"level_2_verified": VerificationLevelPlayer,
	"level_3_verified": VerificationLevelHost,
}

// ParseVerificationLevel accepts canonical and legacy level names.
// "level_2_pending" is rejected: it describes a pending request, not a level.
func ParseVerificationLevel(s string) (VerificationLevel, error) {
	if _, ok := verificationLevelRank[VerificationLevel(s)]; ok {
		return VerificationLevel(s), nil
	}
	if level, ok := legacyVerificationLevels[s]; ok {
		return level, nil
	}
	return "", fmt.Errorf("unknown verification level %q", s)
}

// Rank returns the position of the level in the upgrade path, or -1 if unknown
func (l VerificationLevel) Rank() int {
	if r, ok := verificationLevelRank[l]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether l is at or above other
func (l VerificationLevel) AtLeast(other VerificationLevel) bool {
	return l.Rank() >= other.Rank() && l.Rank() >= 0
}

// Next returns the level directly above l, and false when l is the top level
func (l VerificationLevel) Next() (VerificationLevel, bool) {
	switch l {
	case VerificationLevelPendingEmail:
		return VerificationLevelUnverified, true
	case VerificationLevelUnverified:
		return VerificationLevelPlayer, true
	case VerificationLevelPlayer:
		return VerificationLevelHost, true
	}
	return l, false
}

// MaxLevel returns the higher of two levels
func MaxLevel(a, b VerificationLevel) VerificationLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// RequestStatus is shared by verification requests and ledger transactions
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// IsTerminal reports whether the status can no longer change
func (s RequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// VerificationRequest is a pending or resolved level-upgrade application
type VerificationRequest struct {
	ID              VerificationRequestID `db:"id" json:"id"`
	UserID          AccountID             `db:"user_id" json:"userId"`
	RequestedLevel  VerificationLevel     `db:"requested_level" json:"requestedLevel"`
	Status          RequestStatus         `db:"status" json:"status"`
	FullName        *string               `db:"full_name" json:"fullName,omitempty"`
	DateOfBirth     *time.Time            `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	DocumentKey     *string               `db:"document_key" json:"documentKey,omitempty"`
	RejectionReason *string               `db:"rejection_reason" json:"rejectionReason,omitempty"`
	ReviewedBy      *AccountID            `db:"reviewed_by" json:"reviewedBy,omitempty"`
	CreatedAt       time.Time             `db:"created_at" json:"createdAt"`
	ReviewedAt      *time.Time            `db:"reviewed_at" json:"reviewedAt,omitempty"`
}

// Document is an uploaded verification document
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// VerificationStatus is an account's current level plus its most recent request
type VerificationStatus struct {
	Level         VerificationLevel    `json:"level"`
	LatestRequest *VerificationRequest `json:"latestRequest,omitempty"`
}
