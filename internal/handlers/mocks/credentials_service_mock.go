package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"credentialsManagerAPI/internal/models"
	"credentialsManagerAPI/internal/secretstore"
)

// MockCredentialsService implements handlers.CredentialsService for tests
type MockCredentialsService struct {
	mock.Mock
}

func (m *MockCredentialsService) ListSecrets(ctx context.Context) ([]*secretstore.Secret, error) {
	args := m.Called(ctx)
	secrets, _ := args.Get(0).([]*secretstore.Secret)
	return secrets, args.Error(1)
}

func (m *MockCredentialsService) RetrieveOrCreateSecret(ctx context.Context, name string) (*secretstore.Secret, error) {
	args := m.Called(ctx, name)
	secret, _ := args.Get(0).(*secretstore.Secret)
	return secret, args.Error(1)
}

func (m *MockCredentialsService) DeleteSecret(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockCredentialsService) RetrieveUserCredentials(ctx context.Context, name string) (*models.UserCredentials, error) {
	args := m.Called(ctx, name)
	creds, _ := args.Get(0).(*models.UserCredentials)
	return creds, args.Error(1)
}

func (m *MockCredentialsService) SaveGoogleCredentials(ctx context.Context, name string, google *models.GoogleCredentials) (*secretstore.SecretVersion, error) {
	args := m.Called(ctx, name, google)
	version, _ := args.Get(0).(*secretstore.SecretVersion)
	return version, args.Error(1)
}

func (m *MockCredentialsService) SaveAsanaCredentials(ctx context.Context, name string, asana models.AsanaCredentials) (*secretstore.SecretVersion, error) {
	args := m.Called(ctx, name, asana)
	version, _ := args.Get(0).(*secretstore.SecretVersion)
	return version, args.Error(1)
}
