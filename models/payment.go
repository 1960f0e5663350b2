package models

// GatewayOrderStatus is the payment gateway's view of an order
type GatewayOrderStatus string

const (
	GatewayOrderPaid    GatewayOrderStatus = "paid"
	GatewayOrderFailed  GatewayOrderStatus = "failed"
	GatewayOrderPending GatewayOrderStatus = "pending"
)

// GatewayOrderRequest carries what the gateway needs to open a checkout session
type GatewayOrderRequest struct {
	OrderID       string
	Amount        int64
	CustomerID    AccountID
	CustomerEmail string
	CustomerName  string
}

// GatewayOrder is the gateway's response to a create-order call
type GatewayOrder struct {
	OrderID      string `json:"orderId"`
	SessionToken string `json:"sessionToken"`
}

// GatewayWebhook is a verified webhook notification
type GatewayWebhook struct {
	OrderID string
	Status  GatewayOrderStatus
	Amount  int64
}

// GatewayDeposit is returned to the client after opening a gateway checkout
type GatewayDeposit struct {
	Transaction  *Transaction `json:"transaction"`
	OrderID      string       `json:"orderId"`
	SessionToken string       `json:"sessionToken"`
}
