package main

import (
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"

	"credentialsManagerAPI/internal/config"
	"credentialsManagerAPI/internal/gcp"
	"credentialsManagerAPI/internal/k8s"
	"credentialsManagerAPI/internal/memory"
	"credentialsManagerAPI/internal/secretstore"
	"credentialsManagerAPI/internal/vault"
)

// openStore connects to the configured backend. The returned close func is never nil.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (secretstore.SecretStore, func() error, error) {
	noop := func() error { return nil }
	logger = logger.With(zap.String("backend", cfg.Backend))

	switch cfg.Backend {
	case config.BackendGCP:
		store, err := gcp.NewStore(ctx, cfg.ProjectID, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil

	case config.BackendKubernetes:
		client, err := k8s.NewClient(cfg.Kubernetes.Namespace, cfg.Kubernetes.Kubeconfig, logger)
		if err != nil {
			return nil, noop, err
		}
		if err := client.EnsureNamespace(ctx); err != nil {
			return nil, noop, err
		}
		return client, noop, nil

	case config.BackendVault:
		store, err := vault.NewStore(cfg.Vault.Address, cfg.Vault.Token, cfg.Vault.Mount, cfg.Vault.Prefix, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case config.BackendMemory:
		logger.Warn("Using the in-memory store; secrets are lost on exit")
		return memory.NewStore(cfg.ProjectID), noop, nil
	}

	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// secretParents lists the name prefixes under which the configured backend places secrets.
// Secret Manager reports names with the project number, so both project forms are accepted.
func secretParents(cfg *config.Config) []string {
	switch cfg.Backend {
	case config.BackendKubernetes:
		return []string{"namespaces/" + cfg.Kubernetes.Namespace}
	case config.BackendVault:
		return []string{path.Join(cfg.Vault.Mount, "metadata", cfg.Vault.Prefix)}
	}
	return []string{"projects/" + cfg.ProjectID, "projects/" + cfg.ProjectNumber}
}
