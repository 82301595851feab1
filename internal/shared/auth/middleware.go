package auth

import (
	"net/http"
	"strings"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

// JWTMiddleware validates the bearer token and stores the actor in the
// request context. All three services guard their routes with it.
func JWTMiddleware(jwtService *JWTService, log *logger.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateToken(parts[1])
			if err != nil {
				log.Warn(logger.Entry{
					Action:  "jwt_validation_failed",
					Message: err.Error(),
				})
				respondUnauthorized(w, "invalid or expired token")
				return
			}

			actor := Actor{
				ID:    claims.UserID,
				Email: claims.Email,
				Role:  claims.Role,
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		}
	}
}

// respondUnauthorized sends a 401 response.
func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
