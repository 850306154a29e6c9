package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credentialsManagerAPI/internal/secretstore"
)

func TestStore_SecretLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore("proj")

	_, err := s.GetSecret(ctx, "uid")
	assert.True(t, secretstore.IsNotFound(err))

	created, err := s.CreateSecret(ctx, "uid")
	require.NoError(t, err)
	assert.Equal(t, "projects/proj/secrets/uid", created.Name)
	assert.Equal(t, "uid", created.ID)

	_, err = s.CreateSecret(ctx, "uid")
	assert.True(t, secretstore.IsAlreadyExists(err))

	got, err := s.GetSecret(ctx, "uid")
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)

	list, err := s.ListSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.DeleteSecret(ctx, "uid"))
	assert.True(t, secretstore.IsNotFound(s.DeleteSecret(ctx, "uid")))
}

func TestStore_Versions(t *testing.T) {
	ctx := context.Background()
	s := NewStore("proj")

	_, err := s.AddSecretVersion(ctx, "missing", []byte("x"))
	assert.True(t, secretstore.IsNotFound(err))

	_, err = s.CreateSecret(ctx, "uid")
	require.NoError(t, err)

	versions, err := s.ListSecretVersions(ctx, "uid")
	require.NoError(t, err)
	assert.Empty(t, versions)

	_, err = s.AccessSecretVersion(ctx, "uid", secretstore.LatestVersion)
	assert.True(t, secretstore.IsNotFound(err))

	v1, err := s.AddSecretVersion(ctx, "uid", []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1.Number)
	assert.Equal(t, "projects/proj/secrets/uid/versions/1", v1.Name)

	_, err = s.AddSecretVersion(ctx, "uid", []byte("two"))
	require.NoError(t, err)

	versions, err = s.ListSecretVersions(ctx, "uid")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, int64(2), versions[0].Number)

	latest, err := s.AccessSecretVersion(ctx, "uid", secretstore.LatestVersion)
	require.NoError(t, err)
	assert.Equal(t, "two", string(latest.Payload))

	first, err := s.AccessSecretVersion(ctx, "uid", "1")
	require.NoError(t, err)
	assert.Equal(t, "one", string(first.Payload))

	_, err = s.AccessSecretVersion(ctx, "uid", "3")
	assert.True(t, secretstore.IsNotFound(err))

	// returned payloads are copies
	latest.Payload[0] = 'X'
	again, err := s.AccessSecretVersion(ctx, "uid", secretstore.LatestVersion)
	require.NoError(t, err)
	assert.Equal(t, "two", string(again.Payload))
}
