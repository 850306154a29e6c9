package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"credentialsManagerAPI/internal/secretstore"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest returns a client facing message when req fails its validate tags
func validateRequest(req any) (string, bool) {
	err := validate.Struct(req)
	if err == nil {
		return "", true
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "invalid request", false
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(msgs, "; "), false
}

// writeJSON encodes body with the given status
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("failed to write response", zap.Error(err))
	}
}

// writeStoreError maps secret store error kinds onto HTTP statuses
func writeStoreError(w http.ResponseWriter, logger *zap.Logger, err error, msg string) {
	switch {
	case secretstore.IsNotFound(err):
		http.Error(w, msg+": not found", http.StatusNotFound)
	case secretstore.IsAlreadyExists(err):
		http.Error(w, msg+": already exists", http.StatusConflict)
	default:
		logger.Error(msg, zap.Error(err))
		http.Error(w, msg, http.StatusInternalServerError)
	}
}
