package gcp

import (
	"context"
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"credentialsManagerAPI/internal/secretstore"
)

var crc32c = crc32.MakeTable(crc32.Castagnoli)

// Store talks to Secret Manager for a single project
type Store struct {
	client  secretManagerAPI
	project string
	logger  *zap.Logger
}

var _ secretstore.SecretStore = (*Store)(nil)

// NewStore dials Secret Manager using Application Default Credentials unless
// opts say otherwise. project may be the project id or number.
func NewStore(ctx context.Context, project string, logger *zap.Logger, opts ...option.ClientOption) (*Store, error) {
	client, err := dial(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return newStore(client, project, logger), nil
}

func newStore(client secretManagerAPI, project string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, project: project, logger: logger}
}

// Close releases the underlying connection
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) parent() string {
	return "projects/" + s.project
}

func (s *Store) secretName(id string) string {
	return s.parent() + "/secrets/" + id
}

func (s *Store) versionName(id, version string) string {
	return s.secretName(id) + "/versions/" + version
}

// GetSecret fetches the secret metadata
func (s *Store) GetSecret(ctx context.Context, id string) (*secretstore.Secret, error) {
	secret, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: s.secretName(id)})
	if err != nil {
		return nil, classify(err, id)
	}
	if secret, err = secretstore.Unnull(secret, "get secret response was null"); err != nil {
		return nil, err
	}
	return toSecret(secret), nil
}

// CreateSecret creates a secret with automatic replication and no versions
func (s *Store) CreateSecret(ctx context.Context, id string) (*secretstore.Secret, error) {
	secret, err := s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   s.parent(),
		SecretId: id,
		Secret: &secretmanagerpb.Secret{
			// Automatic replication is documented as "the right choice in most cases".
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	if err != nil {
		return nil, classify(err, id)
	}
	if secret, err = secretstore.Unnull(secret, "create secret response was null"); err != nil {
		return nil, err
	}
	return toSecret(secret), nil
}

// DeleteSecret deletes the secret and every version
func (s *Store) DeleteSecret(ctx context.Context, id string) error {
	if err := s.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{Name: s.secretName(id)}); err != nil {
		return classify(err, id)
	}
	return nil
}

// ListSecrets lists every secret in the project
func (s *Store) ListSecrets(ctx context.Context) ([]*secretstore.Secret, error) {
	secrets, err := s.client.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{Parent: s.parent()})
	if err != nil {
		return nil, errors.Annotatef(err, "listing secrets of %s", s.parent())
	}
	out := make([]*secretstore.Secret, 0, len(secrets))
	for _, secret := range secrets {
		out = append(out, toSecret(secret))
	}
	return out, nil
}

// ListSecretVersions lists the versions of a secret, newest first
func (s *Store) ListSecretVersions(ctx context.Context, id string) ([]*secretstore.SecretVersion, error) {
	versions, err := s.client.ListSecretVersions(ctx, &secretmanagerpb.ListSecretVersionsRequest{Parent: s.secretName(id)})
	if err != nil {
		return nil, classify(err, id)
	}
	out := make([]*secretstore.SecretVersion, 0, len(versions))
	for _, v := range versions {
		out = append(out, toVersion(v))
	}
	return out, nil
}

// AccessSecretVersion reads a version's payload and verifies its checksum when present
func (s *Store) AccessSecretVersion(ctx context.Context, id, version string) (*secretstore.AccessedVersion, error) {
	if _, _, err := secretstore.ParseVersion(version); err != nil {
		return nil, err
	}
	if version == "" {
		version = secretstore.LatestVersion
	}

	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.versionName(id, version),
	})
	if err != nil {
		return nil, classify(err, id)
	}

	accessed := &secretstore.AccessedVersion{Name: resp.GetName()}
	payload := resp.GetPayload()
	if payload == nil || payload.GetData() == nil {
		return accessed, nil
	}

	if payload.DataCrc32C != nil && int64(crc32.Checksum(payload.GetData(), crc32c)) != payload.GetDataCrc32C() {
		return nil, errors.Errorf("payload of %s failed checksum verification", resp.GetName())
	}
	accessed.Payload = payload.GetData()
	return accessed, nil
}

// AddSecretVersion appends payload as a new version
func (s *Store) AddSecretVersion(ctx context.Context, id string, payload []byte) (*secretstore.SecretVersion, error) {
	checksum := int64(crc32.Checksum(payload, crc32c))
	version, err := s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: s.secretName(id),
		Payload: &secretmanagerpb.SecretPayload{
			Data:       payload,
			DataCrc32C: &checksum,
		},
	})
	if err != nil {
		return nil, classify(err, id)
	}
	if version, err = secretstore.Unnull(version, "add secret version response was null"); err != nil {
		return nil, err
	}
	s.logger.Debug("Secret Manager accepted version", zap.String("version", version.GetName()))
	return toVersion(version), nil
}

// classify maps gRPC status codes onto secretstore error kinds
func classify(err error, id string) error {
	switch status.Code(err) {
	case codes.NotFound:
		return secretstore.NotFound(err, id)
	case codes.AlreadyExists:
		return secretstore.AlreadyExists(err, id)
	case codes.PermissionDenied:
		return errors.NewUnauthorized(err, fmt.Sprintf("access to secret %q denied", id))
	}
	return err
}

func toSecret(s *secretmanagerpb.Secret) *secretstore.Secret {
	out := &secretstore.Secret{
		Name:   s.GetName(),
		ID:     secretstore.IDFromName(s.GetName()),
		Labels: s.GetLabels(),
	}
	if s.GetCreateTime() != nil {
		out.CreateTime = s.GetCreateTime().AsTime()
	}
	return out
}

func toVersion(v *secretmanagerpb.SecretVersion) *secretstore.SecretVersion {
	out := &secretstore.SecretVersion{
		Name:  v.GetName(),
		State: secretstore.VersionState(v.GetState().String()),
	}
	if i := strings.LastIndex(v.GetName(), "/"); i >= 0 {
		out.Number, _ = strconv.ParseInt(v.GetName()[i+1:], 10, 64)
	}
	if v.GetCreateTime() != nil {
		out.CreateTime = v.GetCreateTime().AsTime()
	}
	return out
}
