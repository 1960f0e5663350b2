package models

import (
	"time"
)

// MatchStatus represents the state of a hosted match
type MatchStatus string

const (
	MatchStatusOpen      MatchStatus = "open"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusDisputed  MatchStatus = "disputed"
	MatchStatusCancelled MatchStatus = "cancelled"
)

// Match is a head-to-head contest with a pooled entry fee
type Match struct {
	ID            MatchID     `db:"id" json:"id"`
	HostID        AccountID   `db:"host_id" json:"hostId"`
	GameID        GameID      `db:"game_id" json:"gameId"`
	Title         string      `db:"title" json:"title"`
	EntryFee      int64       `db:"entry_fee" json:"entryFee"`
	StartTime     time.Time   `db:"start_time" json:"startTime"`
	StreamURL     *string     `db:"stream_url" json:"streamUrl,omitempty"`
	Status        MatchStatus `db:"status" json:"status"`
	Player1ID     *AccountID  `db:"player1_id" json:"player1Id,omitempty"`
	Player2ID     *AccountID  `db:"player2_id" json:"player2Id,omitempty"`
	WinnerID      *AccountID  `db:"winner_id" json:"winnerId,omitempty"`
	DisputeReason *string     `db:"dispute_reason" json:"disputeReason,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updatedAt"`
	CompletedAt   *time.Time  `db:"completed_at" json:"completedAt,omitempty"`
}

// IsParticipant checks if a user occupies one of the player slots
func (m *Match) IsParticipant(userID AccountID) bool {
	return (m.Player1ID != nil && *m.Player1ID == userID) ||
		(m.Player2ID != nil && *m.Player2ID == userID)
}

// IsFull reports whether both player slots are taken
func (m *Match) IsFull() bool {
	return m.Player1ID != nil && m.Player2ID != nil
}

// Players returns the occupied player slots in slot order
func (m *Match) Players() []AccountID {
	players := make([]AccountID, 0, 2)
	if m.Player1ID != nil {
		players = append(players, *m.Player1ID)
	}
	if m.Player2ID != nil {
		players = append(players, *m.Player2ID)
	}
	return players
}

// Pool returns the total entry fees collected from joined players
func (m *Match) Pool() int64 {
	return m.EntryFee * int64(len(m.Players()))
}

// IsActive checks if the match can still change state (not completed or cancelled)
func (m *Match) IsActive() bool {
	return m.Status == MatchStatusOpen || m.Status == MatchStatusLive || m.Status == MatchStatusDisputed
}

// MatchResult is returned when a match is paid out
type MatchResult struct {
	Match       *Match       `json:"match"`
	WinnerID    AccountID    `json:"winnerId,omitempty"`
	Pool        int64        `json:"pool"`
	PlatformFee int64        `json:"platformFee"`
	Payout      int64        `json:"payout"`
	PayoutTx    *Transaction `json:"payoutTransaction,omitempty"`
}

// CreateMatchParams are the host-supplied fields of a new match
type CreateMatchParams struct {
	GameID    GameID
	Title     string
	EntryFee  int64
	StartTime time.Time
	StreamURL *string
}
