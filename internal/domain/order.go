package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the contact block sent as the order's "user" object.
type Customer struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Tel     string `json:"tel"`
	Address string `json:"address"`
}

// OrderRequest keeps the free-text message beside the customer, not inside it.
type OrderRequest struct {
	User    Customer `json:"user"`
	Message string   `json:"message"`
}

type OrderReceipt struct {
	OrderID   string          `json:"order_id"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	Message   string          `json:"message"`
}
