package models

// DashboardStats aggregates the admin console review queues
type DashboardStats struct {
	PendingDeposits      int   `json:"pendingDeposits"`
	PendingWithdrawals   int   `json:"pendingWithdrawals"`
	PendingVerifications int   `json:"pendingVerifications"`
	OpenTickets          int   `json:"openTickets"`
	LiveMatches          int   `json:"liveMatches"`
	DisputedMatches      int   `json:"disputedMatches"`
	TotalAccounts        int   `json:"totalAccounts"`
	WalletLiability      int64 `json:"walletLiability"`
}
