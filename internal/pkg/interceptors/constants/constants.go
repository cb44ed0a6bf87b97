package constants

// contextKey is an unexported type for context keys in this package.
// Using a custom type prevents collisions with keys from other packages
// that might use the same underlying string value.
type contextKey string

const (
	HeaderXRequestId = "x-request-id"
	HeaderXVisitorID = "x-visitor-id"

	// CookieVisitor carries the visitor id that scopes a cart.
	CookieVisitor = "necs_visitor"

	// ContextKeyRequestID is the context key for the request ID.
	ContextKeyRequestID contextKey = HeaderXRequestId
	// ContextKeyVisitorID is the context key for the visitor ID.
	ContextKeyVisitorID contextKey = HeaderXVisitorID
	// ContextKeyNewVisitor marks a visitor id issued by this request.
	ContextKeyNewVisitor contextKey = "necs-new-visitor"
)
