package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
// The second value is a client facing reason when the header is unusable.
func bearerToken(r *http.Request) (string, string) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", "Authorization header required"
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", "Authorization header must be Bearer <token>"
	}
	return strings.TrimSpace(token), ""
}

// JWTMiddleware validates JWT tokens and injects the username into the request context
func JWTMiddleware(jwtManager JWT, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, reason := bearerToken(r)
		if reason != "" {
			http.Error(w, reason, http.StatusUnauthorized)
			return
		}

		claims, err := jwtManager.Verify(token)
		if err != nil {
			logger.Debug("Rejected token", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), claims.Username)))
	})
}

// MethodMiddleware answers 405 for any method not listed, with an Allow header
func MethodMiddleware(allowedMethods ...string) func(http.Handler) http.Handler {
	allow := strings.Join(allowedMethods, ", ")
	methods := make(map[string]struct{}, len(allowedMethods))
	for _, m := range allowedMethods {
		methods[m] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := methods[r.Method]; !ok {
				w.Header().Set("Allow", allow)
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
