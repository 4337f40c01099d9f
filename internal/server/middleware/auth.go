package middleware

import (
	"errors"
	"net/http"
	"strings"

	"org-access-api/backend/internal/platform/httpx"
	"org-access-api/backend/internal/security"
)

// TokenVerifier validates an access token and returns the user id it was issued to.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireAuth rejects requests without a valid Bearer access token and stores the token's
// user id in the request context. A missing or malformed Authorization header is 403; a
// present but invalid or expired token is 401.
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" {
				httpx.Fail(w, http.StatusForbidden, "No token provided")
				return
			}
			userID, err := tokens.Verify(token)
			if err != nil {
				if errors.Is(err, security.ErrTokenExpired) {
					httpx.Error(w, http.StatusUnauthorized, "Token expired")
					return
				}
				httpx.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// extractBearer returns the token of a "Bearer <token>" header value, or "" if the
// value is missing, uses another scheme, or has no space-delimited token.
func extractBearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
