package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credentialsManagerAPI/internal/memory"
	"credentialsManagerAPI/internal/secretstore"
)

func TestRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore("p")
	repo := NewRepository(store)

	_, err := repo.Get(ctx, "alice")
	assert.True(t, secretstore.IsNotFound(err))

	require.NoError(t, repo.Create(ctx, "alice", "hash1"))

	err = repo.Create(ctx, "alice", "hash2")
	assert.True(t, secretstore.IsAlreadyExists(err))

	account, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, "hash1", account.Password)

	require.NoError(t, repo.UpdatePassword(ctx, "alice", "hash3"))
	account, err = repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash3", account.Password)

	versions, err := store.ListSecretVersions(ctx, SecretName("alice"))
	require.NoError(t, err)
	assert.Len(t, versions, 2)

	require.NoError(t, repo.Delete(ctx, "alice"))
	assert.True(t, secretstore.IsNotFound(repo.Delete(ctx, "alice")))
}

func TestRepository_UpdatePassword_Unknown(t *testing.T) {
	repo := NewRepository(memory.NewStore("p"))
	err := repo.UpdatePassword(context.Background(), "ghost", "hash")
	assert.True(t, secretstore.IsNotFound(err))
}

func TestSecretName(t *testing.T) {
	assert.Equal(t, "account-bob", SecretName("bob"))
}
