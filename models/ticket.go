package models

import (
	"time"
)

// TicketStatus represents the state of a support ticket
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

var ticketStatusRank = map[TicketStatus]int{
	TicketStatusOpen:       0,
	TicketStatusInProgress: 1,
	TicketStatusClosed:     2,
}

// IsValid reports whether s is a known ticket status
func (s TicketStatus) IsValid() bool {
	_, ok := ticketStatusRank[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next is a forward transition
func (s TicketStatus) CanAdvanceTo(next TicketStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	return ticketStatusRank[next] > ticketStatusRank[s]
}

// SupportTicket is a help request from a user or guest
type SupportTicket struct {
	ID            TicketID     `db:"id" json:"id"`
	UserID        *AccountID   `db:"user_id" json:"userId,omitempty"`
	Email         string       `db:"email" json:"email"`
	Subject       string       `db:"subject" json:"subject"`
	Message       string       `db:"message" json:"message"`
	Status        TicketStatus `db:"status" json:"status"`
	AdminResponse *string      `db:"admin_response" json:"adminResponse,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updatedAt"`
}
