package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"org-access-api/backend/internal/audit"
)

// Audit records one audit entry per request after the handler returns. The action and
// resource come from the matched chi route pattern; the org id from the {orgId} URL
// parameter when the route has one. Requests that matched no route are not recorded.
// Mount it inside RequireAuth on protected routes so the user id is available.
func Audit(logger audit.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if logger == nil {
				return
			}
			rctx := chi.RouteContext(r.Context())
			if rctx == nil {
				return
			}
			pattern := strings.TrimSuffix(rctx.RoutePattern(), "/")
			if pattern == "" {
				return
			}
			ar := audit.ParseRoute(r.Method, pattern)
			userID, _ := UserID(r.Context())
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.LogEvent(r.Context(), rctx.URLParam("orgId"), userID, ar.Action, ar.Resource, "status="+strconv.Itoa(status))
		})
	}
}
