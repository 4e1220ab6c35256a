package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/tradeledger/backend/src/logger"
	"github.com/username/tradeledger/backend/src/security"
	"github.com/username/tradeledger/backend/src/utils"
)

// bearerToken extracts the token from the Authorization header, or falls back
// to the 'token' query parameter. Browsers cannot set headers on websocket
// upgrade requests, so the stream endpoint relies on the fallback.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// AuthMiddleware validates the access token and stores the user ID in the
// request context for downstream handlers.
func AuthMiddleware(authService *security.AuthService, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			utils.SendJSONError(w, "Authorization token required", http.StatusUnauthorized)
			return
		}

		userIDStr, err := authService.ValidateToken(tokenString)
		if err != nil {
			logger.L.Warn("Token validation failed", "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			logger.L.Error("Token subject is not a valid user ID", "subject", userIDStr)
			utils.SendJSONError(w, "Invalid token subject", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
