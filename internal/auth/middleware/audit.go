package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-lessons/internal/rbac"
)

// AuditWrites logs who changed what on every non-GET request. It must run
// after JWTMiddleware so the subject is in the context.
func AuditWrites(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info("admin write",
				zap.String("subject", SubjectFromContext(r.Context())),
				zap.String("role", rbac.RoleFromContext(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
