package k8s

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"credentialsManagerAPI/internal/secretstore"
)

func newFakeClient(t *testing.T) *Client {
	return &Client{
		ClientSet: fake.NewSimpleClientset(),
		Namespace: "credentials",
		Logger:    zaptest.NewLogger(t),
	}
}

// Testing CreateSecret and GetSecret
func TestCreateSecret(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient(t)

	// Preload an unrelated secret to make sure it is not mistaken for ours
	_, _ = client.ClientSet.CoreV1().Secrets("credentials").Create(ctx,
		&v1.Secret{ObjectMeta: metav1.ObjectMeta{Name: "foreign"}},
		metav1.CreateOptions{},
	)

	tests := []struct {
		name          string
		secretName    string
		expectError   bool
		alreadyExists bool
	}{
		{
			name:       "successfully creates secret",
			secretName: "uid",
		},
		{
			name:          "fails to create duplicate secret",
			secretName:    "uid",
			expectError:   true,
			alreadyExists: true,
		},
		{
			name:          "name taken by a foreign secret",
			secretName:    "foreign",
			expectError:   true,
			alreadyExists: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret, err := client.CreateSecret(ctx, tt.secretName)
			if tt.expectError {
				assert.Error(t, err)
				assert.Equal(t, tt.alreadyExists, secretstore.IsAlreadyExists(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "namespaces/credentials/secrets/"+tt.secretName, secret.Name)
			assert.Equal(t, tt.secretName, secret.ID)

			got, err := client.GetSecret(ctx, tt.secretName)
			require.NoError(t, err)
			assert.Equal(t, secret.Name, got.Name)
		})
	}
}

// Testing GetSecret function
func TestGetSecret(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient(t)

	_, err := client.CreateSecret(ctx, "test")
	require.NoError(t, err)
	_, _ = client.ClientSet.CoreV1().Secrets("credentials").Create(ctx,
		&v1.Secret{ObjectMeta: metav1.ObjectMeta{Name: "foreign"}},
		metav1.CreateOptions{},
	)

	tests := []struct {
		name        string
		secretName  string
		expectError bool
	}{
		{name: "retrieves existing secret", secretName: "test"},
		{name: "returns not found for non-existent secret", secretName: "missing", expectError: true},
		{name: "returns not found for unmanaged secret", secretName: "foreign", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret, err := client.GetSecret(ctx, tt.secretName)
			if tt.expectError {
				assert.True(t, secretstore.IsNotFound(err))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.secretName, secret.ID)
			}
		})
	}
}

func TestVersions(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient(t)

	_, err := client.AddSecretVersion(ctx, "uid", []byte("x"))
	assert.True(t, secretstore.IsNotFound(err))

	_, err = client.ListSecretVersions(ctx, "uid")
	assert.True(t, secretstore.IsNotFound(err))

	_, err = client.CreateSecret(ctx, "uid")
	require.NoError(t, err)

	versions, err := client.ListSecretVersions(ctx, "uid")
	require.NoError(t, err)
	assert.Empty(t, versions)

	_, err = client.AccessSecretVersion(ctx, "uid", secretstore.LatestVersion)
	assert.True(t, secretstore.IsNotFound(err))

	v1st, err := client.AddSecretVersion(ctx, "uid", []byte(`{"google":{}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1st.Number)
	assert.Equal(t, "namespaces/credentials/secrets/uid/versions/1", v1st.Name)

	v2nd, err := client.AddSecretVersion(ctx, "uid", []byte(`{"asana":{}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2nd.Number)

	versions, err = client.ListSecretVersions(ctx, "uid")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, int64(2), versions[0].Number)
	assert.Equal(t, int64(1), versions[1].Number)

	latest, err := client.AccessSecretVersion(ctx, "uid", secretstore.LatestVersion)
	require.NoError(t, err)
	assert.Equal(t, `{"asana":{}}`, string(latest.Payload))
	assert.Equal(t, "namespaces/credentials/secrets/uid/versions/2", latest.Name)

	first, err := client.AccessSecretVersion(ctx, "uid", "1")
	require.NoError(t, err)
	assert.Equal(t, `{"google":{}}`, string(first.Payload))

	_, err = client.AccessSecretVersion(ctx, "uid", "9")
	assert.True(t, secretstore.IsNotFound(err))
}

func TestAccessSecretVersion_MissingPayload(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient(t)

	_, err := client.CreateSecret(ctx, "uid")
	require.NoError(t, err)
	_, err = client.AddSecretVersion(ctx, "uid", []byte("data"))
	require.NoError(t, err)

	// strip the payload out of band
	obj, err := client.ClientSet.CoreV1().Secrets("credentials").Get(ctx, versionObjectName("uid", 1), metav1.GetOptions{})
	require.NoError(t, err)
	obj.Data = nil
	_, err = client.ClientSet.CoreV1().Secrets("credentials").Update(ctx, obj, metav1.UpdateOptions{})
	require.NoError(t, err)

	accessed, err := client.AccessSecretVersion(ctx, "uid", secretstore.LatestVersion)
	require.NoError(t, err)
	assert.Nil(t, accessed.Payload)
}

func TestListSecrets(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient(t)

	for _, id := range []string{"b", "a"} {
		_, err := client.CreateSecret(ctx, id)
		require.NoError(t, err)
	}
	_, err := client.AddSecretVersion(ctx, "a", []byte("x"))
	require.NoError(t, err)

	secrets, err := client.ListSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, secrets, 2) // version objects are not listed
	assert.Equal(t, "a", secrets[0].ID)
	assert.Equal(t, "b", secrets[1].ID)
}

// Testing DeleteSecret function
func TestDeleteSecret(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient(t)

	_, err := client.CreateSecret(ctx, "to-delete")
	require.NoError(t, err)
	_, err = client.AddSecretVersion(ctx, "to-delete", []byte("x"))
	require.NoError(t, err)

	tests := []struct {
		name        string
		secretName  string
		expectError bool
	}{
		{
			name:       "deletes existing secret",
			secretName: "to-delete",
		},
		{
			name:        "returns error for non-existent secret",
			secretName:  "notfound",
			expectError: true,
		},
		{
			name:        "second delete fails",
			secretName:  "to-delete",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.DeleteSecret(ctx, tt.secretName)
			if tt.expectError {
				assert.True(t, secretstore.IsNotFound(err))
				return
			}
			assert.NoError(t, err)
			_, err = client.ClientSet.CoreV1().Secrets("credentials").Get(ctx, tt.secretName, metav1.GetOptions{})
			assert.Error(t, err)
			_, err = client.ClientSet.CoreV1().Secrets("credentials").Get(ctx, versionObjectName(tt.secretName, 1), metav1.GetOptions{})
			assert.Error(t, err)
		})
	}
}
