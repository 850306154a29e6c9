package server

import (
	"net/http"

	"go.uber.org/zap"

	"credentialsManagerAPI/internal/auth"
	"credentialsManagerAPI/internal/handlers"
)

// scopedRoute represents a single API route
type scopedRoute struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
	Protected   bool // whether the route requires JWT
}

// NewRouter initializes all routes and returns an http.Handler
func NewRouter(jwtManager auth.JWT, userHandler handlers.UserHandlerInterface, credentialsHandler handlers.CredentialsHandlerInterface, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Define routes
	routes := []scopedRoute{
		// Public routes
		{
			Name:        "RegisterUser",
			Method:      http.MethodPost,
			Pattern:     "/register",
			HandlerFunc: userHandler.Register,
			Protected:   false,
		},
		{
			Name:        "LoginUser",
			Method:      http.MethodPost,
			Pattern:     "/login",
			HandlerFunc: userHandler.Login,
			Protected:   false,
		},

		// Protected routes
		{
			Name:        "GetCredentials",
			Method:      http.MethodGet,
			Pattern:     "/credentials/{$}",
			HandlerFunc: credentialsHandler.GetCredentials,
			Protected:   true,
		},
		{
			Name:        "DeleteCredentials",
			Method:      http.MethodDelete,
			Pattern:     "/credentials/{$}",
			HandlerFunc: credentialsHandler.DeleteCredentials,
			Protected:   true,
		},
		{
			Name:        "SaveGoogleCredentials",
			Method:      http.MethodPut,
			Pattern:     "/credentials/google/",
			HandlerFunc: credentialsHandler.SaveGoogleCredentials,
			Protected:   true,
		},
		{
			Name:        "SaveAsanaCredentials",
			Method:      http.MethodPut,
			Pattern:     "/credentials/asana/",
			HandlerFunc: credentialsHandler.SaveAsanaCredentials,
			Protected:   true,
		},
		{
			Name:        "ListSecrets",
			Method:      http.MethodGet,
			Pattern:     "/secrets/",
			HandlerFunc: credentialsHandler.ListSecrets,
			Protected:   true,
		},
		{
			Name:        "ChangeUserPassword",
			Method:      http.MethodPut,
			Pattern:     "/user/change-password/",
			HandlerFunc: userHandler.ChangeUserPassword,
			Protected:   true,
		},
		{
			Name:        "DeleteUser",
			Method:      http.MethodDelete,
			Pattern:     "/user/delete/",
			HandlerFunc: userHandler.DeleteUser,
			Protected:   true,
		},
	}

	// Several routes share a pattern and differ by method, so group them first
	methodsByPattern := make(map[string][]scopedRoute)
	var patterns []string
	for _, route := range routes {
		if _, ok := methodsByPattern[route.Pattern]; !ok {
			patterns = append(patterns, route.Pattern)
		}
		methodsByPattern[route.Pattern] = append(methodsByPattern[route.Pattern], route)
	}

	// mux matches incoming requests against the registered patterns and calls the first match
	mux := http.NewServeMux()
	for _, pattern := range patterns {
		group := methodsByPattern[pattern]

		allowed := make([]string, 0, len(group))
		byMethod := make(map[string]http.HandlerFunc, len(group))
		protected := false
		for _, route := range group {
			allowed = append(allowed, route.Method)
			byMethod[route.Method] = route.HandlerFunc
			protected = protected || route.Protected
		}

		var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			byMethod[req.Method](w, req)
		})
		handler = auth.MethodMiddleware(allowed...)(handler)

		// Wrap protected routes with JWT middleware
		if protected {
			handler = auth.JWTMiddleware(jwtManager, logger, handler)
		}

		mux.Handle(pattern, handler)
	}

	return withRequestLog(logger, mux)
}

// withRequestLog logs every request at debug level
func withRequestLog(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}
