// Package accounts persists API user accounts as secrets named account-<username>.
package accounts

import (
	"context"
	"encoding/json"

	"github.com/juju/errors"

	"credentialsManagerAPI/internal/models"
	"credentialsManagerAPI/internal/secretstore"
)

const secretPrefix = "account-"

// SecretName returns the secret holding the account of username
func SecretName(username string) string {
	return secretPrefix + username
}

// Repository stores accounts in a secret store; every password change is a new version
type Repository struct {
	store secretstore.SecretStore
}

// NewRepository creates a Repository backed by store
func NewRepository(store secretstore.SecretStore) *Repository {
	return &Repository{store: store}
}

// Create stores a new account. It fails with AlreadyExists if the username is taken.
func (r *Repository) Create(ctx context.Context, username, passwordHash string) error {
	name := SecretName(username)
	if _, err := r.store.CreateSecret(ctx, name); err != nil {
		return errors.Annotatef(err, "creating account %q", username)
	}
	if err := r.write(ctx, models.Account{Username: username, Password: passwordHash}); err != nil {
		// leave no half-created account behind
		_ = r.store.DeleteSecret(ctx, name)
		return err
	}
	return nil
}

// Get returns the stored account or a NotFound error
func (r *Repository) Get(ctx context.Context, username string) (*models.Account, error) {
	accessed, err := r.store.AccessSecretVersion(ctx, SecretName(username), secretstore.LatestVersion)
	if err != nil {
		return nil, errors.Annotatef(err, "reading account %q", username)
	}
	if accessed.Payload == nil {
		return nil, errors.NotFoundf("account %q payload", username)
	}

	var account models.Account
	if err := json.Unmarshal(accessed.Payload, &account); err != nil {
		return nil, errors.Annotatef(err, "decoding account %q", username)
	}
	return &account, nil
}

// UpdatePassword appends a version carrying the new hash
func (r *Repository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	if _, err := r.Get(ctx, username); err != nil {
		return err
	}
	return r.write(ctx, models.Account{Username: username, Password: passwordHash})
}

// Delete removes the account secret
func (r *Repository) Delete(ctx context.Context, username string) error {
	if err := r.store.DeleteSecret(ctx, SecretName(username)); err != nil {
		return errors.Annotatef(err, "deleting account %q", username)
	}
	return nil
}

func (r *Repository) write(ctx context.Context, account models.Account) error {
	payload, err := json.Marshal(account)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err := r.store.AddSecretVersion(ctx, SecretName(account.Username), payload); err != nil {
		return errors.Annotatef(err, "storing account %q", account.Username)
	}
	return nil
}
