// Package middleware provides HTTP middleware for the API surface.
package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/pkg/api"
	"github.com/zack-george/instanthspro/pkg/auth"
)

// Authenticate validates the Authorization header and attaches the
// caller to the request context. Requests without a valid token get 401.
func Authenticate(validator *auth.Validator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := validator.ValidateToken(r.Header.Get("Authorization"))
			if err != nil {
				logger.Debug("rejected unauthenticated request",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				api.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID: claims.UserID,
				Email:  claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
