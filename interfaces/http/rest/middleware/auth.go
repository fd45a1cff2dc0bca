package middleware

import (
	"errors"
	"net/http"
	"strings"

	"goslim/pkg/auth"
	"goslim/pkg/common"

	"go.uber.org/zap"
)

// Authenticate validates the bearer token and stores the caller identity in
// the request context. It guards the admin surface only; the term and job
// endpoints are public like the original service.
func Authenticate(validator *auth.JWTValidator, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validator == nil {
				common.RespondError(w, http.StatusServiceUnavailable,
					common.StandardErrorCodes.ServiceUnavailable, "Authentication is not configured")
				return
			}

			token := extractToken(r)
			if token == "" {
				common.RespondError(w, http.StatusUnauthorized,
					common.StandardErrorCodes.Unauthorized, "Missing authentication token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("token rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					common.RespondError(w, http.StatusUnauthorized,
						common.StandardErrorCodes.Unauthorized, "Token has expired")
				case errors.Is(err, auth.ErrInvalidSignature):
					common.RespondError(w, http.StatusUnauthorized,
						common.StandardErrorCodes.Unauthorized, "Invalid token signature")
				default:
					common.RespondError(w, http.StatusUnauthorized,
						common.StandardErrorCodes.Unauthorized, "Invalid token")
				}
				return
			}

			ctx := common.WithUserID(r.Context(), claims.UserID)
			ctx = common.WithUserRoles(ctx, claims.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose claims lack the role
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !common.HasRole(r.Context(), role) {
				common.RespondError(w, http.StatusForbidden,
					common.StandardErrorCodes.Forbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit enforces a per-client request allowance. The key is the
// authenticated user when present, the client IP otherwise. A failing
// limiter store never blocks traffic.
func RateLimit(limiter auth.RateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := clientIP(r)
			if userID, ok := common.GetUserID(r.Context()); ok {
				key = userID
			}

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable",
					zap.String("key", key),
					zap.Error(err),
				)
				allowed = true
			}
			if !allowed {
				common.RespondError(w, http.StatusTooManyRequests,
					common.StandardErrorCodes.TooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken pulls the bearer token from the authorization header, the
// auth cookie, or the token query parameter, in that order
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return authHeader
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}

	return r.URL.Query().Get("token")
}

// clientIP extracts the client IP address
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
