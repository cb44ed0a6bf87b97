package domain

// Notice is a short user-facing message shown in the toast surface.
type Notice string

const (
	NoticeEmptyCart           Notice = "Your cart is empty."
	NoticeCheckoutUnavailable Notice = "Checkout is coming soon!"
)

// CheckoutNotice is what the checkout button reports for a cart. No order is
// ever created.
func CheckoutNotice(c *Cart) Notice {
	if c.IsEmpty() {
		return NoticeEmptyCart
	}
	return NoticeCheckoutUnavailable
}
