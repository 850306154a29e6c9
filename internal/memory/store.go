// Package memory is an in-process secret store for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"credentialsManagerAPI/internal/secretstore"
)

type secret struct {
	meta     secretstore.Secret
	versions [][]byte
	created  []time.Time
}

// Store keeps secrets in maps guarded by a mutex
type Store struct {
	mu      sync.RWMutex
	project string
	secrets map[string]*secret
	now     func() time.Time
}

var _ secretstore.SecretStore = (*Store)(nil)

// NewStore creates an empty store. Names are derived as projects/<project>/secrets/<id>.
func NewStore(project string) *Store {
	return &Store{
		project: project,
		secrets: make(map[string]*secret),
		now:     time.Now,
	}
}

func (s *Store) secretName(id string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.project, id)
}

func (s *Store) versionName(id string, n int) string {
	return fmt.Sprintf("%s/versions/%d", s.secretName(id), n)
}

// GetSecret returns the secret or a NotFound error
func (s *Store) GetSecret(_ context.Context, id string) (*secretstore.Secret, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, ok := s.secrets[id]
	if !ok {
		return nil, secretstore.NotFound(nil, id)
	}
	meta := sec.meta
	return &meta, nil
}

// CreateSecret adds an empty secret; it fails with AlreadyExists if the id is taken
func (s *Store) CreateSecret(_ context.Context, id string) (*secretstore.Secret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.secrets[id]; ok {
		return nil, secretstore.AlreadyExists(nil, id)
	}
	sec := &secret{meta: secretstore.Secret{
		Name:       s.secretName(id),
		ID:         id,
		CreateTime: s.now(),
	}}
	s.secrets[id] = sec
	meta := sec.meta
	return &meta, nil
}

// DeleteSecret removes the secret and all of its versions
func (s *Store) DeleteSecret(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.secrets[id]; !ok {
		return secretstore.NotFound(nil, id)
	}
	delete(s.secrets, id)
	return nil
}

// ListSecrets returns all secrets ordered by id
func (s *Store) ListSecrets(_ context.Context) ([]*secretstore.Secret, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*secretstore.Secret, 0, len(s.secrets))
	for _, sec := range s.secrets {
		meta := sec.meta
		out = append(out, &meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListSecretVersions returns versions newest first, like the managed stores
func (s *Store) ListSecretVersions(_ context.Context, id string) ([]*secretstore.SecretVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, ok := s.secrets[id]
	if !ok {
		return nil, secretstore.NotFound(nil, id)
	}
	out := make([]*secretstore.SecretVersion, 0, len(sec.versions))
	for i := len(sec.versions) - 1; i >= 0; i-- {
		out = append(out, &secretstore.SecretVersion{
			Name:       s.versionName(id, i+1),
			Number:     int64(i + 1),
			CreateTime: sec.created[i],
			State:      secretstore.VersionEnabled,
		})
	}
	return out, nil
}

// AccessSecretVersion returns a copy of the payload for the requested version
func (s *Store) AccessSecretVersion(_ context.Context, id, version string) (*secretstore.AccessedVersion, error) {
	n, latest, err := secretstore.ParseVersion(version)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, ok := s.secrets[id]
	if !ok {
		return nil, secretstore.NotFound(nil, id)
	}
	if latest {
		n = int64(len(sec.versions))
	}
	if n == 0 || n > int64(len(sec.versions)) {
		return nil, secretstore.NotFound(fmt.Errorf("version %s of secret %q not found", version, id), id)
	}

	payload := sec.versions[n-1]
	var data []byte
	if payload != nil {
		data = append([]byte{}, payload...)
	}
	return &secretstore.AccessedVersion{Name: s.versionName(id, int(n)), Payload: data}, nil
}

// AddSecretVersion appends a copy of payload as the newest version
func (s *Store) AddSecretVersion(_ context.Context, id string, payload []byte) (*secretstore.SecretVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, ok := s.secrets[id]
	if !ok {
		return nil, secretstore.NotFound(nil, id)
	}
	created := s.now()
	sec.versions = append(sec.versions, append([]byte{}, payload...))
	sec.created = append(sec.created, created)
	n := len(sec.versions)

	return &secretstore.SecretVersion{
		Name:       s.versionName(id, n),
		Number:     int64(n),
		CreateTime: created,
		State:      secretstore.VersionEnabled,
	}, nil
}
