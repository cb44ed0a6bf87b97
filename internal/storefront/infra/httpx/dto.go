package httpx

import "encoding/json"

// AddItemRequest is what an "add to cart" button posts. Price is kept raw so
// a missing or non-numeric value can fall back to zero instead of failing.
type AddItemRequest struct {
	Name  string          `json:"name"`
	Price json.RawMessage `json:"price"`
}

type CartResponse struct {
	Items       []CartItemResponse `json:"items"`
	Count       int                `json:"count"`
	Total       string             `json:"total"`
	TotalAmount json.Number        `json:"total_amount"`
	DrawerOpen  bool               `json:"drawer_open,omitempty"`
}

type CartItemResponse struct {
	Index        int         `json:"index"`
	Name         string      `json:"name"`
	Price        json.Number `json:"price"`
	PriceDisplay string      `json:"price_display"`
	Qty          int         `json:"qty"`
	Subtotal     string      `json:"subtotal"`
}

type CheckoutResponse struct {
	Notice string       `json:"notice"`
	Cart   CartResponse `json:"cart"`
}

type NotificationResponse struct {
	Message   string `json:"message"`
	ExpiresAt string `json:"expires_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
