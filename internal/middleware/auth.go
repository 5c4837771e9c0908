package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sync_service/pkg/ctxdata"
	"sync_service/pkg/logging"
)

// RequireUser accepts the student id the gateway resolved into X-User-Id.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		header := r.Header.Get("X-User-Id")
		if header == "" {
			if logger, ok := logging.GetFromContext(ctx); ok {
				logger.Info(ctx, "no user id header", zap.String("path", r.URL.Path))
			}
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if _, err := uuid.Parse(header); err != nil {
			if logger, ok := logging.GetFromContext(ctx); ok {
				logger.Info(ctx, "malformed user id header", zap.String("path", r.URL.Path))
			}
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctxdata.WithUserID(ctx, header)))
	})
}
