// Package credentials stores a user's Google and Asana credentials as one
// JSON document in a secret store. Every change appends a new secret version;
// the latest version is the current state.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/im7mortal/kmutex"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"credentialsManagerAPI/internal/models"
	"credentialsManagerAPI/internal/secretstore"
)

// ErrNullPayload is returned when the latest version carries no payload
const ErrNullPayload = errors.ConstError("response payload was null")

// Service reads and writes user credentials through a SecretStore.
// It is safe for concurrent use.
type Service struct {
	store  secretstore.SecretStore
	logger *zap.Logger
	locks  *kmutex.Kmutex
}

// NewService creates a Service backed by store
func NewService(store secretstore.SecretStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger,
		locks:  kmutex.New(),
	}
}

// ListSecrets returns every secret visible to the configured store
func (s *Service) ListSecrets(ctx context.Context) ([]*secretstore.Secret, error) {
	secrets, err := s.store.ListSecrets(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "listing secrets")
	}
	return secrets, nil
}

// RetrieveOrCreateSecret returns the named secret, creating it when it does not exist.
// Only a NotFound answer leads to creation; other failures are returned.
func (s *Service) RetrieveOrCreateSecret(ctx context.Context, name string) (*secretstore.Secret, error) {
	secret, err := s.store.GetSecret(ctx, name)
	if err == nil {
		s.logger.Info("Retrieved secret", zap.String("secret", secret.Name))
		return secret, nil
	}
	if !secretstore.IsNotFound(err) {
		return nil, errors.Annotatef(err, "retrieving secret %q", name)
	}

	s.logger.Info("Could not retrieve a secret, creating one", zap.String("secret", name))

	secret, err = s.store.CreateSecret(ctx, name)
	if secretstore.IsAlreadyExists(err) {
		// Someone else created it between our get and create.
		secret, err = s.store.GetSecret(ctx, name)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "creating secret %q", name)
	}

	s.logger.Info("Created secret", zap.String("secret", secret.Name))
	return secret, nil
}

// DeleteSecret deletes the named secret and all of its versions.
// Deleting a secret that does not exist returns a NotFound error.
func (s *Service) DeleteSecret(ctx context.Context, name string) error {
	if err := s.store.DeleteSecret(ctx, name); err != nil {
		return errors.Annotatef(err, "deleting secret %q", name)
	}
	s.logger.Info("Deleted secret", zap.String("secret", name))
	return nil
}

// RetrieveUserCredentials decodes the latest version of the named secret.
// A secret without versions yields empty credentials.
func (s *Service) RetrieveUserCredentials(ctx context.Context, name string) (*models.UserCredentials, error) {
	versions, err := s.store.ListSecretVersions(ctx, name)
	if err != nil {
		return nil, errors.Annotatef(err, "listing versions of secret %q", name)
	}
	if len(versions) == 0 {
		return &models.UserCredentials{}, nil
	}

	accessed, err := s.store.AccessSecretVersion(ctx, name, secretstore.LatestVersion)
	if err != nil {
		return nil, errors.Annotatef(err, "accessing latest version of secret %q", name)
	}
	if accessed.Payload == nil {
		return nil, errors.Annotatef(ErrNullPayload, "when retrieving secret named %s", name)
	}

	creds, err := decode(accessed.Payload)
	if err != nil {
		return nil, errors.Annotatef(err, "parsing payload of %s", accessed.Name)
	}
	s.logger.Debug("Parsed credentials from payload", zap.String("version", accessed.Name))

	return creds, nil
}

// SaveGoogleCredentials replaces the Google credentials of the named secret
func (s *Service) SaveGoogleCredentials(ctx context.Context, name string, google *models.GoogleCredentials) (*secretstore.SecretVersion, error) {
	return s.SaveCredentials(ctx, name, func(c *models.UserCredentials) {
		c.Google = google
	})
}

// SaveAsanaCredentials replaces the Asana credentials of the named secret
func (s *Service) SaveAsanaCredentials(ctx context.Context, name string, asana models.AsanaCredentials) (*secretstore.SecretVersion, error) {
	return s.SaveCredentials(ctx, name, func(c *models.UserCredentials) {
		c.Asana = asana
	})
}

// SaveCredentials reads the current credentials, applies update and appends
// the result as a new version. Calls for the same name are serialized.
func (s *Service) SaveCredentials(ctx context.Context, name string, update func(*models.UserCredentials)) (*secretstore.SecretVersion, error) {
	s.locks.Lock(name)
	defer s.locks.Unlock(name)

	creds, err := s.RetrieveUserCredentials(ctx, name)
	if err != nil {
		return nil, err
	}

	update(creds)

	payload, err := json.Marshal(creds)
	if err != nil {
		return nil, errors.Annotate(err, "encoding credentials")
	}

	version, err := s.store.AddSecretVersion(ctx, name, payload)
	if err != nil {
		return nil, errors.Annotatef(err, "adding version to secret %q", name)
	}

	s.logger.Info("Added secret version", zap.String("version", version.Name))
	return version, nil
}

func decode(payload []byte) (*models.UserCredentials, error) {
	var raw struct {
		Google json.RawMessage         `json:"google"`
		Asana  models.AsanaCredentials `json:"asana"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}

	google, err := models.NewGoogleCredentials(raw.Google)
	if err != nil {
		return nil, fmt.Errorf("google credentials: %w", err)
	}

	return &models.UserCredentials{Google: google, Asana: raw.Asana}, nil
}
