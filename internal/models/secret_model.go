package models

import "time"

// SecretSummary describes a secret resource returned by the API
type SecretSummary struct {
	Name       string    `json:"name"`                  // Store-derived name
	SecretName string    `json:"secret-name"`           // Logical name
	CreateTime time.Time `json:"create-time,omitempty"` // Zero when the store does not report it
}

// SecretListResponse represents the secrets visible to the service
type SecretListResponse struct {
	Secrets []SecretSummary `json:"secrets"`
}
