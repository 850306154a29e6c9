package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Testing UserResponse - marshalling
func TestUserResponse_JSONMarshalling(t *testing.T) {
	tests := []struct {
		name     string
		input    UserResponse
		expected string
	}{
		{
			name: "with token",
			input: UserResponse{
				Token:   "abcd1234",
				Message: "login successful",
			},
			expected: `{"token":"abcd1234","message":"login successful"}`,
		},
		{
			name: "without token (omitempty)",
			input: UserResponse{
				Message: "user registered",
			},
			expected: `{"message":"user registered"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.input)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(b))
		})
	}
}

// The stored account record keeps the hash under "password"
func TestAccount_JSONKeys(t *testing.T) {
	b, err := json.Marshal(Account{Username: "bob", Password: "$2a$10$hash"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"bob","password":"$2a$10$hash"}`, string(b))
}

func TestChangePasswordRequest_JSONUnmarshalling(t *testing.T) {
	var req ChangePasswordRequest
	err := json.Unmarshal([]byte(`{"new_password":"hunter22"}`), &req)
	require.NoError(t, err)
	assert.Equal(t, "hunter22", req.NewPassword)
}
