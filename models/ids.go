package models

import "strconv"

// AccountID identifies an Account row
type AccountID int64

// TransactionID identifies a Transaction row
type TransactionID int64

// MatchID identifies a Match row
type MatchID int64

// VerificationRequestID identifies a VerificationRequest row
type VerificationRequestID int64

// TicketID identifies a SupportTicket row
type TicketID int64

// GameID identifies a Game row
type GameID int64

func (id AccountID) String() string             { return strconv.FormatInt(int64(id), 10) }
func (id TransactionID) String() string         { return strconv.FormatInt(int64(id), 10) }
func (id MatchID) String() string               { return strconv.FormatInt(int64(id), 10) }
func (id VerificationRequestID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id TicketID) String() string              { return strconv.FormatInt(int64(id), 10) }
func (id GameID) String() string                { return strconv.FormatInt(int64(id), 10) }
