package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Limiter is a sliding-window rate limiter keyed by caller identity.
// The DynamoDB-backed limiter satisfies this so limits hold across
// instances, unlike the per-process limiters inside Authenticate.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects requests over the shared limit with 429.
// Limiter errors fail open.
func RateLimit(limiter Limiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			allowed, err := limiter.Allow(r.Context(), clientIP)
			if err != nil {
				logger.Warn("Rate limit check failed",
					zap.String("clientIP", clientIP),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
