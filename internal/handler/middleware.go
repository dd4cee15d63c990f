package handler

import (
	"context"
	"net/http"
)

// HeaderCustomerID carries the authenticated subject, set by the fronting
// auth proxy. Auth provider internals are out of scope here.
const HeaderCustomerID = "X-Customer-Id"

type contextKey struct{}

var customerIDKey contextKey

// RequireCustomer rejects requests without an authenticated customer and
// stashes the id in the request context for handlers.
func RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customerID := r.Header.Get(HeaderCustomerID)
		if customerID == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required", Code: "unauthenticated"})
			return
		}
		ctx := context.WithValue(r.Context(), customerIDKey, customerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func customerID(r *http.Request) string {
	id, _ := r.Context().Value(customerIDKey).(string)
	return id
}
