// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"filippo.io/csrf"
)

// CSRF returns middleware that rejects cross-origin mutations using
// Fetch metadata headers. Bearer-authenticated API routes don't need it;
// cookie-authenticated admin routes do.
func CSRF(trustedOrigins []string) func(http.Handler) http.Handler {
	protection := csrf.New()
	for _, origin := range trustedOrigins {
		if err := protection.AddTrustedOrigin(origin); err != nil {
			slog.Warn("invalid trusted origin for CSRF protection", "origin", origin, "error", err)
		}
	}

	return func(next http.Handler) http.Handler {
		return protection.Handler(next)
	}
}
