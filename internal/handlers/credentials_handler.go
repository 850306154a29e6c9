package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"credentialsManagerAPI/internal/auth"
	"credentialsManagerAPI/internal/models"
)

// maxCredentialBody bounds the size of a credential document accepted from a client
const maxCredentialBody = 64 << 10

// CredentialsHandler serves the caller's own credentials. The username from the token is the secret name.
type CredentialsHandler struct {
	Service CredentialsService
	Logger  *zap.Logger
}

// NewCredentialsHandler creates a new CredentialsHandler
func NewCredentialsHandler(service CredentialsService, logger *zap.Logger) *CredentialsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialsHandler{
		Service: service,
		Logger:  logger,
	}
}

// GetCredentials handles GET /credentials/
func (h *CredentialsHandler) GetCredentials(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	creds, err := h.Service.RetrieveUserCredentials(r.Context(), username)
	if err != nil {
		writeStoreError(w, h.Logger, err, "failed to retrieve credentials")
		return
	}

	writeJSON(w, h.Logger, http.StatusOK, models.NewCredentialsResponse(username, *creds))
}

// SaveGoogleCredentials handles PUT /credentials/google/
func (h *CredentialsHandler) SaveGoogleCredentials(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	raw, ok := readDocument(w, r)
	if !ok {
		return
	}
	google, err := models.NewGoogleCredentials(raw)
	if err != nil || google == nil {
		http.Error(w, "google credentials must be a JSON object", http.StatusBadRequest)
		return
	}

	version, err := h.Service.SaveGoogleCredentials(r.Context(), username, google)
	if err != nil {
		writeStoreError(w, h.Logger, err, "failed to save google credentials")
		return
	}

	writeJSON(w, h.Logger, http.StatusOK, models.VersionResponse{SecretName: username, Version: version.Name})
}

// SaveAsanaCredentials handles PUT /credentials/asana/. The body is stored as given.
func (h *CredentialsHandler) SaveAsanaCredentials(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	raw, ok := readDocument(w, r)
	if !ok {
		return
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		http.Error(w, "asana credentials must not be null", http.StatusBadRequest)
		return
	}

	version, err := h.Service.SaveAsanaCredentials(r.Context(), username, models.AsanaCredentials(raw))
	if err != nil {
		writeStoreError(w, h.Logger, err, "failed to save asana credentials")
		return
	}

	writeJSON(w, h.Logger, http.StatusOK, models.VersionResponse{SecretName: username, Version: version.Name})
}

// DeleteCredentials handles DELETE /credentials/
func (h *CredentialsHandler) DeleteCredentials(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.Service.DeleteSecret(r.Context(), username); err != nil {
		writeStoreError(w, h.Logger, err, "failed to delete credentials")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSecrets handles GET /secrets/. A caller only ever sees their own credentials secret;
// the full listing is left to the CLI.
func (h *CredentialsHandler) ListSecrets(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	secrets, err := h.Service.ListSecrets(r.Context())
	if err != nil {
		writeStoreError(w, h.Logger, err, "failed to list secrets")
		return
	}

	resp := models.SecretListResponse{Secrets: []models.SecretSummary{}}
	for _, s := range secrets {
		if s.ID != username {
			continue
		}
		resp.Secrets = append(resp.Secrets, models.SecretSummary{
			Name:       s.Name,
			SecretName: s.ID,
			CreateTime: s.CreateTime,
		})
	}
	writeJSON(w, h.Logger, http.StatusOK, resp)
}

// readDocument reads a bounded request body that must be a single valid JSON value
func readDocument(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCredentialBody))
	if err != nil {
		http.Error(w, "request body too large or unreadable", http.StatusBadRequest)
		return nil, false
	}
	if len(body) == 0 || !json.Valid(body) {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return nil, false
	}
	return json.RawMessage(body), true
}
