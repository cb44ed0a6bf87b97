package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/necs-cart/internal/pkg/interceptors/constants"
)

const visitorCookieMaxAge = 365 * 24 * time.Hour

// Visitor identifies the browser a cart belongs to. It takes the id from the
// X-Visitor-ID header or the necs_visitor cookie and issues a fresh cookie
// when neither holds a valid UUID.
func Visitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := visitorFromRequest(r)
		if !ok {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     constants.CookieVisitor,
				Value:    id,
				Path:     "/",
				MaxAge:   int(visitorCookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			ctx = context.WithValue(ctx, constants.ContextKeyNewVisitor, true)
		}

		ctx = context.WithValue(ctx, constants.ContextKeyVisitorID, id)
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("visitor.id", id))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// VisitorID returns the id stored by Visitor, or "" outside it.
func VisitorID(ctx context.Context) string {
	id, _ := ctx.Value(constants.ContextKeyVisitorID).(string)
	return id
}

// IsNewVisitor reports whether Visitor issued the id on this request, in which
// case nothing can have been saved under it yet.
func IsNewVisitor(ctx context.Context) bool {
	isNew, _ := ctx.Value(constants.ContextKeyNewVisitor).(bool)
	return isNew
}

func visitorFromRequest(r *http.Request) (string, bool) {
	if id, ok := parseVisitorID(r.Header.Get(constants.HeaderXVisitorID)); ok {
		return id, true
	}
	if c, err := r.Cookie(constants.CookieVisitor); err == nil {
		return parseVisitorID(c.Value)
	}
	return "", false
}

func parseVisitorID(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
