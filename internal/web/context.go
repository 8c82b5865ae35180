// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package web

import (
	"context"
	"net/http"

	"github.com/driftfile/driftfile/internal/auth"
)

type contextKey int

const accountKey contextKey = iota

// withSession resolves the session cookie once and stores the account in the
// request context. Unauthenticated requests pass through with no account;
// handlers behind this middleware branch on presence.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if account := s.flow.WhoAmI(r.Context(), sessionToken(r)); account != nil {
			r = r.WithContext(context.WithValue(r.Context(), accountKey, account))
		}
		next.ServeHTTP(w, r)
	})
}

// AccountFromContext returns the authenticated account for the request, or
// nil when unauthenticated.
func AccountFromContext(ctx context.Context) *auth.Account {
	account, _ := ctx.Value(accountKey).(*auth.Account)
	return account
}
