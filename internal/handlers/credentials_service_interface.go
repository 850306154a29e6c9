package handlers

import (
	"context"

	"credentialsManagerAPI/internal/models"
	"credentialsManagerAPI/internal/secretstore"
)

// CredentialsService defines the credential operations used by the handlers so it can be mocked in tests.
type CredentialsService interface {
	ListSecrets(ctx context.Context) ([]*secretstore.Secret, error)
	RetrieveOrCreateSecret(ctx context.Context, name string) (*secretstore.Secret, error)
	DeleteSecret(ctx context.Context, name string) error
	RetrieveUserCredentials(ctx context.Context, name string) (*models.UserCredentials, error)
	SaveGoogleCredentials(ctx context.Context, name string, google *models.GoogleCredentials) (*secretstore.SecretVersion, error)
	SaveAsanaCredentials(ctx context.Context, name string, asana models.AsanaCredentials) (*secretstore.SecretVersion, error)
}

// AccountStore defines the account persistence used by UserHandler.
type AccountStore interface {
	Create(ctx context.Context, username, passwordHash string) error
	Get(ctx context.Context, username string) (*models.Account, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	Delete(ctx context.Context, username string) error
}
