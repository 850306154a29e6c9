package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"credentialsManagerAPI/internal/auth"
	"credentialsManagerAPI/internal/models"
	"credentialsManagerAPI/internal/secretstore"
)

// UserHandler handles user registration and login
type UserHandler struct {
	JWTManager  auth.JWTGenerator
	Accounts    AccountStore
	Credentials CredentialsService
	Logger      *zap.Logger
	// HashCost is the bcrypt cost used for new password hashes
	HashCost int
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(accounts AccountStore, credentials CredentialsService, jwtManager auth.JWTGenerator, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{
		JWTManager:  jwtManager,
		Accounts:    accounts,
		Credentials: credentials,
		Logger:      logger,
		HashCost:    bcrypt.DefaultCost,
	}
}

// Register creates the account record and the user's credentials secret
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if msg, ok := validateRequest(req); !ok {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	// Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cost())
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	if err := h.Accounts.Create(r.Context(), req.Username, string(hash)); err != nil {
		writeStoreError(w, h.Logger, err, "Failed to create user")
		return
	}

	// The credentials secret is named after the user
	if _, err := h.Credentials.RetrieveOrCreateSecret(r.Context(), req.Username); err != nil {
		if derr := h.Accounts.Delete(r.Context(), req.Username); derr != nil {
			h.Logger.Warn("Could not roll back account", zap.String("username", req.Username), zap.Error(derr))
		}
		writeStoreError(w, h.Logger, err, "Failed to create credentials secret")
		return
	}

	h.Logger.Info("Registered user", zap.String("username", req.Username))
	writeJSON(w, h.Logger, http.StatusCreated, models.UserResponse{
		Message: "User registered successfully",
	})
}

// Login validates user credentials and returns a JWT token
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	account, err := h.Accounts.Get(r.Context(), req.Username)
	if err != nil {
		if secretstore.IsNotFound(err) {
			http.Error(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		writeStoreError(w, h.Logger, err, "Failed to read user")
		return
	}

	// Compare password
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	// Generate JWT token
	token, err := h.JWTManager.Generate(req.Username)
	if err != nil {
		h.Logger.Error("Failed to generate token", zap.Error(err))
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.Logger, http.StatusOK, models.UserResponse{
		Token:   token,
		Message: "Login successful",
	})
}

// ChangeUserPassword allows a user to change their password
func (h *UserHandler) ChangeUserPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Get the current username from JWTMiddleware context
	username, ok := auth.GetUsername(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if msg, ok := validateRequest(req); !ok {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), h.cost())
	if err != nil {
		http.Error(w, "Failed to hash new password", http.StatusInternalServerError)
		return
	}

	if err := h.Accounts.UpdatePassword(r.Context(), username, string(hash)); err != nil {
		writeStoreError(w, h.Logger, err, "Failed to update password")
		return
	}

	writeJSON(w, h.Logger, http.StatusOK, models.UserResponse{
		Message: "User details updated successfully",
	})
}

// DeleteUser deletes the user's credentials secret and account
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Get username from JWT context
	username, ok := auth.GetUsername(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// A user whose credentials were already removed can still be deleted
	if err := h.Credentials.DeleteSecret(r.Context(), username); err != nil && !secretstore.IsNotFound(err) {
		writeStoreError(w, h.Logger, err, "Failed to delete credentials")
		return
	}

	if err := h.Accounts.Delete(r.Context(), username); err != nil {
		writeStoreError(w, h.Logger, err, "Failed to delete user")
		return
	}

	h.Logger.Info("Deleted user", zap.String("username", username))
	writeJSON(w, h.Logger, http.StatusOK, models.UserResponse{
		Message: "User deleted successfully",
	})
}

func (h *UserHandler) cost() int {
	if h.HashCost == 0 {
		return bcrypt.DefaultCost
	}
	return h.HashCost
}
