// Package vault implements secretstore.SecretStore on a HashiCorp Vault KV v2 mount.
//
// Each secret lives at <mount>/data/<prefix>/<id>. Vault keeps the version
// history itself; appends use check-and-set against the current version so
// a concurrent writer in another process makes the append fail instead of
// being silently overwritten.
package vault

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/vault/api"
	jujuerrors "github.com/juju/errors"
	"go.uber.org/zap"

	"credentialsManagerAPI/internal/secretstore"
)

const payloadKey = "payload"

// kvAPI is the subset of *api.KVv2 used here
type kvAPI interface {
	GetVersion(ctx context.Context, secretPath string, version int) (*api.KVSecret, error)
	GetMetadata(ctx context.Context, secretPath string) (*api.KVMetadata, error)
	Put(ctx context.Context, secretPath string, data map[string]interface{}, opts ...api.KVOption) (*api.KVSecret, error)
	PutMetadata(ctx context.Context, secretPath string, metadata api.KVMetadataPutInput) error
	DeleteMetadata(ctx context.Context, secretPath string) error
}

// lister is the subset of *api.Logical used to enumerate secrets
type lister interface {
	ListWithContext(ctx context.Context, path string) (*api.Secret, error)
}

// Store is a Vault-backed secret store
type Store struct {
	kv     kvAPI
	logic  lister
	mount  string
	prefix string
	logger *zap.Logger
}

var _ secretstore.SecretStore = (*Store)(nil)

// NewStore creates a store using the given Vault address and token.
// Empty values fall back to VAULT_ADDR / VAULT_TOKEN.
func NewStore(address, token, mount, prefix string, logger *zap.Logger) (*Store, error) {
	cfg := api.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("failed to read vault environment: %w", cfg.Error)
	}
	if address != "" {
		cfg.Address = address
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	return newStore(client.KVv2(mount), client.Logical(), mount, prefix, logger), nil
}

func newStore(kv kvAPI, logic lister, mount, prefix string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		kv:     kv,
		logic:  logic,
		mount:  strings.Trim(mount, "/"),
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

func (s *Store) secretPath(id string) string {
	return path.Join(s.prefix, id)
}

func (s *Store) secretName(id string) string {
	return path.Join(s.mount, "metadata", s.prefix, "secrets", id)
}

func (s *Store) versionName(id string, n int) string {
	return fmt.Sprintf("%s/versions/%d", s.secretName(id), n)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, api.ErrSecretNotFound) {
		return true
	}
	var respErr *api.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

func classify(err error, id string) error {
	if isNotFound(err) {
		return secretstore.NotFound(err, id)
	}
	var respErr *api.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == 403 {
		return jujuerrors.NewUnauthorized(err, fmt.Sprintf("access to secret %q denied", id))
	}
	return err
}

func (s *Store) metadata(ctx context.Context, id string) (*api.KVMetadata, error) {
	meta, err := s.kv.GetMetadata(ctx, s.secretPath(id))
	if err != nil {
		return nil, classify(err, id)
	}
	if meta == nil {
		return nil, secretstore.NotFound(nil, id)
	}
	return meta, nil
}

func (s *Store) toSecret(id string, meta *api.KVMetadata) *secretstore.Secret {
	out := &secretstore.Secret{
		Name:       s.secretName(id),
		ID:         id,
		CreateTime: meta.CreatedTime,
	}
	if len(meta.CustomMetadata) > 0 {
		out.Labels = make(map[string]string, len(meta.CustomMetadata))
		for k, v := range meta.CustomMetadata {
			out.Labels[k] = fmt.Sprint(v)
		}
	}
	return out
}

// GetSecret reads the secret's metadata
func (s *Store) GetSecret(ctx context.Context, id string) (*secretstore.Secret, error) {
	meta, err := s.metadata(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toSecret(id, meta), nil
}

// CreateSecret writes metadata only, leaving the secret with no versions
func (s *Store) CreateSecret(ctx context.Context, id string) (*secretstore.Secret, error) {
	_, err := s.metadata(ctx, id)
	if err == nil {
		return nil, secretstore.AlreadyExists(nil, id)
	}
	if !secretstore.IsNotFound(err) {
		return nil, err
	}

	if err := s.kv.PutMetadata(ctx, s.secretPath(id), api.KVMetadataPutInput{
		CustomMetadata: map[string]interface{}{"managed-by": "credentials-manager"},
	}); err != nil {
		return nil, classify(err, id)
	}

	return s.GetSecret(ctx, id)
}

// DeleteSecret removes the metadata and every version.
// Vault deletes missing paths silently, so existence is checked first.
func (s *Store) DeleteSecret(ctx context.Context, id string) error {
	if _, err := s.metadata(ctx, id); err != nil {
		return err
	}
	if err := s.kv.DeleteMetadata(ctx, s.secretPath(id)); err != nil {
		return classify(err, id)
	}
	return nil
}

// ListSecrets lists the secrets under the prefix
func (s *Store) ListSecrets(ctx context.Context) ([]*secretstore.Secret, error) {
	listPath := path.Join(s.mount, "metadata", s.prefix)
	resp, err := s.logic.ListWithContext(ctx, listPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", listPath, err)
	}
	if resp == nil || resp.Data == nil {
		return []*secretstore.Secret{}, nil
	}

	rawKeys, _ := resp.Data["keys"].([]interface{})
	out := make([]*secretstore.Secret, 0, len(rawKeys))
	for _, k := range rawKeys {
		id := fmt.Sprintf("%v", k)
		if strings.HasSuffix(id, "/") {
			continue // nested folder
		}
		meta, err := s.metadata(ctx, id)
		if err != nil {
			if secretstore.IsNotFound(err) {
				continue // removed while listing
			}
			return nil, err
		}
		out = append(out, s.toSecret(id, meta))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// latestLiveVersion returns the highest version that is neither deleted nor
// destroyed, or 0. KV v2 "current version" still points at a soft-deleted one.
func latestLiveVersion(meta *api.KVMetadata) int {
	newest := 0
	for key, v := range meta.Versions {
		if v.Destroyed || !v.DeletionTime.IsZero() {
			continue
		}
		n := v.Version
		if n == 0 {
			n, _ = strconv.Atoi(key)
		}
		if n > newest {
			newest = n
		}
	}
	return newest
}

// ListSecretVersions lists live versions, newest first
func (s *Store) ListSecretVersions(ctx context.Context, id string) ([]*secretstore.SecretVersion, error) {
	meta, err := s.metadata(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]*secretstore.SecretVersion, 0, len(meta.Versions))
	for key, v := range meta.Versions {
		n := v.Version
		if n == 0 {
			n, _ = strconv.Atoi(key)
		}
		state := secretstore.VersionEnabled
		switch {
		case v.Destroyed:
			state = secretstore.VersionDestroyed
		case !v.DeletionTime.IsZero():
			state = secretstore.VersionDisabled
		}
		if state != secretstore.VersionEnabled {
			continue
		}
		out = append(out, &secretstore.SecretVersion{
			Name:       s.versionName(id, n),
			Number:     int64(n),
			CreateTime: v.CreatedTime,
			State:      state,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out, nil
}

// AccessSecretVersion reads one version's payload
func (s *Store) AccessSecretVersion(ctx context.Context, id, version string) (*secretstore.AccessedVersion, error) {
	n, latest, err := secretstore.ParseVersion(version)
	if err != nil {
		return nil, err
	}

	if latest {
		meta, err := s.metadata(ctx, id)
		if err != nil {
			return nil, err
		}
		newest := latestLiveVersion(meta)
		if newest == 0 {
			return nil, secretstore.NotFound(nil, id)
		}
		n = int64(newest)
	}

	secret, err := s.kv.GetVersion(ctx, s.secretPath(id), int(n))
	if err != nil {
		return nil, classify(err, id)
	}
	if secret == nil {
		return nil, secretstore.NotFound(nil, id)
	}

	accessed := &secretstore.AccessedVersion{}
	if secret.VersionMetadata != nil {
		accessed.Name = s.versionName(id, secret.VersionMetadata.Version)
	} else {
		accessed.Name = s.versionName(id, int(n))
	}
	if raw, ok := secret.Data[payloadKey].(string); ok {
		accessed.Payload = []byte(raw)
	}
	return accessed, nil
}

// AddSecretVersion writes payload as the next version using check-and-set
func (s *Store) AddSecretVersion(ctx context.Context, id string, payload []byte) (*secretstore.SecretVersion, error) {
	meta, err := s.metadata(ctx, id)
	if err != nil {
		return nil, err
	}

	secret, err := s.kv.Put(ctx, s.secretPath(id),
		map[string]interface{}{payloadKey: string(payload)},
		api.WithCheckAndSet(meta.CurrentVersion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add version to secret %q: %w", id, classify(err, id))
	}

	out := &secretstore.SecretVersion{State: secretstore.VersionEnabled}
	if secret != nil && secret.VersionMetadata != nil {
		out.Number = int64(secret.VersionMetadata.Version)
		out.CreateTime = secret.VersionMetadata.CreatedTime
	} else {
		out.Number = int64(meta.CurrentVersion + 1)
	}
	out.Name = s.versionName(id, int(out.Number))

	s.logger.Debug("Vault accepted version", zap.String("version", out.Name))
	return out, nil
}
