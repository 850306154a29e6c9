// Package config loads service settings from flags, environment and defaults through viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings keys. Each key can be overridden by the upper-cased environment variable
// with dashes replaced by underscores (STORE_BACKEND, SECRET_KEY, ...).
const (
	KeyProjectID     = "project-id"
	KeyProjectNumber = "project-number"
	KeyBackend       = "store-backend"
	KeyListen        = "listen"
	KeySecretKey     = "secret-key"
	KeyTokenDuration = "token-duration"
	KeyTokenIssuer   = "token-issuer"
	KeyLogLevel      = "log-level"
	KeyLogFormat     = "log-format"
	KeyVaultAddress  = "vault-address"
	KeyVaultToken    = "vault-token"
	KeyVaultMount    = "vault-mount"
	KeyVaultPrefix   = "vault-prefix"
	KeyK8sNamespace  = "k8s-namespace"
	KeyKubeconfig    = "kubeconfig"
)

// Store backends
const (
	BackendGCP        = "gcp"
	BackendKubernetes = "k8s"
	BackendVault      = "vault"
	BackendMemory     = "memory"
)

var backends = []string{BackendGCP, BackendKubernetes, BackendVault, BackendMemory}

// Config is the resolved service configuration
type Config struct {
	ProjectID     string
	ProjectNumber string
	Backend       string

	Listen        string
	SecretKey     string
	TokenDuration time.Duration
	TokenIssuer   string

	LogLevel  string
	LogFormat string

	Vault      VaultConfig
	Kubernetes KubernetesConfig
}

// VaultConfig locates the KV v2 engine used by the vault backend. Address and
// Token fall back to the Vault client's own environment when empty.
type VaultConfig struct {
	Address string
	Token   string
	Mount   string
	Prefix  string
}

// KubernetesConfig selects the namespace holding credential Secrets.
// Kubeconfig is only read outside a cluster and defaults to ~/.kube/config.
type KubernetesConfig struct {
	Namespace  string
	Kubeconfig string
}

// New returns a viper instance carrying the defaults and environment bindings
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyProjectID, "the-process-tool")
	v.SetDefault(KeyProjectNumber, "256145062869")
	v.SetDefault(KeyBackend, BackendGCP)
	v.SetDefault(KeyListen, ":8080")
	v.SetDefault(KeyTokenDuration, 24*time.Hour)
	v.SetDefault(KeyTokenIssuer, "credentials-manager")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyVaultMount, "secret")
	v.SetDefault(KeyVaultPrefix, "credentials")
	v.SetDefault(KeyK8sNamespace, "credentials")

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Names the surrounding tooling already uses
	_ = v.BindEnv(KeyVaultAddress, "VAULT_ADDRESS", "VAULT_ADDR")
	_ = v.BindEnv(KeyVaultToken, "VAULT_TOKEN")
	_ = v.BindEnv(KeyKubeconfig, "KUBECONFIG")

	return v
}

// BindFlags binds every flag of cmd, including persistent ones, to v
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var result error
	bind := func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			result = multierror.Append(result, err)
		}
	}
	cmd.Flags().VisitAll(bind)
	cmd.InheritedFlags().VisitAll(bind)
	return result
}

// Load reads v into a Config and validates the store settings
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ProjectID:     v.GetString(KeyProjectID),
		ProjectNumber: v.GetString(KeyProjectNumber),
		Backend:       strings.ToLower(strings.TrimSpace(v.GetString(KeyBackend))),
		Listen:        v.GetString(KeyListen),
		SecretKey:     v.GetString(KeySecretKey),
		TokenDuration: v.GetDuration(KeyTokenDuration),
		TokenIssuer:   v.GetString(KeyTokenIssuer),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     v.GetString(KeyLogFormat),
		Vault: VaultConfig{
			Address: v.GetString(KeyVaultAddress),
			Token:   v.GetString(KeyVaultToken),
			Mount:   v.GetString(KeyVaultMount),
			Prefix:  v.GetString(KeyVaultPrefix),
		},
		Kubernetes: KubernetesConfig{
			Namespace:  v.GetString(KeyK8sNamespace),
			Kubeconfig: v.GetString(KeyKubeconfig),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings needed to reach the configured store
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.Backend {
	case BackendGCP:
		if c.ProjectID == "" {
			result = multierror.Append(result, fmt.Errorf("%s is required for the %s backend", KeyProjectID, c.Backend))
		}
	case BackendKubernetes:
		if c.Kubernetes.Namespace == "" {
			result = multierror.Append(result, fmt.Errorf("%s is required for the %s backend", KeyK8sNamespace, c.Backend))
		}
	case BackendVault:
		if c.Vault.Mount == "" {
			result = multierror.Append(result, fmt.Errorf("%s is required for the %s backend", KeyVaultMount, c.Backend))
		}
	case BackendMemory:
	default:
		result = multierror.Append(result, fmt.Errorf("%s must be one of %s, got %q", KeyBackend, strings.Join(backends, ", "), c.Backend))
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		result = multierror.Append(result, fmt.Errorf("%s must be json or console, got %q", KeyLogFormat, c.LogFormat))
	}

	return result.ErrorOrNil()
}

// ValidateServer checks the settings the HTTP server needs on top of Validate
func (c *Config) ValidateServer() error {
	var result *multierror.Error

	if err := c.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if c.SecretKey == "" {
		result = multierror.Append(result, fmt.Errorf("%s is required", KeySecretKey))
	}
	if c.TokenDuration <= 0 {
		result = multierror.Append(result, fmt.Errorf("%s must be positive, got %s", KeyTokenDuration, c.TokenDuration))
	}
	if c.Listen == "" {
		result = multierror.Append(result, fmt.Errorf("%s is required", KeyListen))
	}

	return result.ErrorOrNil()
}
