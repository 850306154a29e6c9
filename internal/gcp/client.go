// Package gcp implements secretstore.SecretStore on Google Cloud Secret Manager.
package gcp

import (
	"context"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// secretManagerAPI is the subset of the Secret Manager client the store uses.
// List calls return drained slices so the store can be tested without a server.
type secretManagerAPI interface {
	GetSecret(ctx context.Context, req *secretmanagerpb.GetSecretRequest) (*secretmanagerpb.Secret, error)
	CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest) (*secretmanagerpb.Secret, error)
	DeleteSecret(ctx context.Context, req *secretmanagerpb.DeleteSecretRequest) error
	ListSecrets(ctx context.Context, req *secretmanagerpb.ListSecretsRequest) ([]*secretmanagerpb.Secret, error)
	ListSecretVersions(ctx context.Context, req *secretmanagerpb.ListSecretVersionsRequest) ([]*secretmanagerpb.SecretVersion, error)
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)
	AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest) (*secretmanagerpb.SecretVersion, error)
	Close() error
}

// sdkClient adapts *secretmanager.Client to secretManagerAPI
type sdkClient struct {
	c *secretmanager.Client
}

func dial(ctx context.Context, opts ...option.ClientOption) (secretManagerAPI, error) {
	c, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &sdkClient{c: c}, nil
}

func (s *sdkClient) GetSecret(ctx context.Context, req *secretmanagerpb.GetSecretRequest) (*secretmanagerpb.Secret, error) {
	return s.c.GetSecret(ctx, req)
}

func (s *sdkClient) CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest) (*secretmanagerpb.Secret, error) {
	return s.c.CreateSecret(ctx, req)
}

func (s *sdkClient) DeleteSecret(ctx context.Context, req *secretmanagerpb.DeleteSecretRequest) error {
	return s.c.DeleteSecret(ctx, req)
}

func (s *sdkClient) ListSecrets(ctx context.Context, req *secretmanagerpb.ListSecretsRequest) ([]*secretmanagerpb.Secret, error) {
	var out []*secretmanagerpb.Secret
	it := s.c.ListSecrets(ctx, req)
	for {
		secret, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, secret)
	}
}

func (s *sdkClient) ListSecretVersions(ctx context.Context, req *secretmanagerpb.ListSecretVersionsRequest) ([]*secretmanagerpb.SecretVersion, error) {
	var out []*secretmanagerpb.SecretVersion
	it := s.c.ListSecretVersions(ctx, req)
	for {
		version, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, version)
	}
}

func (s *sdkClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	return s.c.AccessSecretVersion(ctx, req)
}

func (s *sdkClient) AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest) (*secretmanagerpb.SecretVersion, error) {
	return s.c.AddSecretVersion(ctx, req)
}

func (s *sdkClient) Close() error {
	return s.c.Close()
}
