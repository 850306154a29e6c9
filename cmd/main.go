package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"credentialsManagerAPI/internal/config"
	"credentialsManagerAPI/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(config.New()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	a := &app{v: v}

	root := &cobra.Command{
		Use:           "credentials-manager",
		Short:         "Stores per-user Google and Asana credentials in a secret store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.BindFlags(cmd, a.v); err != nil {
				return err
			}
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String(config.KeyBackend, config.BackendGCP, "secret store backend: gcp, k8s, vault or memory")
	flags.String(config.KeyProjectID, "the-process-tool", "Google Cloud project holding the secrets")
	flags.String(config.KeyLogLevel, "info", "log level")
	flags.String(config.KeyLogFormat, "json", "log format: json or console")
	flags.String(config.KeyK8sNamespace, "credentials", "namespace used by the k8s backend")
	flags.String(config.KeyKubeconfig, "", "kubeconfig for the k8s backend; in-cluster config when empty")
	flags.String(config.KeyVaultAddress, "", "Vault address for the vault backend")
	flags.String(config.KeyVaultMount, "secret", "KV v2 mount for the vault backend")
	flags.String(config.KeyVaultPrefix, "credentials", "path prefix inside the Vault mount")

	root.AddCommand(newServeCmd(a), newSecretsCmd(a), newCredentialsCmd(a))
	return root
}
