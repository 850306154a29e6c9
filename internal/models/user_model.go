package models

// UserRequest represents the incoming JSON payload for user registration/login
type UserRequest struct {
	Username string `json:"username" validate:"required,max=48,alphanum,lowercase"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ChangePasswordRequest is the payload for PUT /user/change-password/
type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// UserResponse represents the outgoing JSON response
type UserResponse struct {
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// Account is the stored record for an API user
type Account struct {
	Username string `json:"username"`
	Password string `json:"password"` // bcrypt hash
}
