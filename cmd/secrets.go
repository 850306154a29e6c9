package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"credentialsManagerAPI/internal/credentials"
	"credentialsManagerAPI/internal/models"
	"credentialsManagerAPI/internal/secretstore"
)

func newSecretsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Inspect and remove secrets in the configured store",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd, func(service *credentials.Service) error {
				secrets, err := service.ListSecrets(cmd.Context())
				if err != nil {
					return err
				}
				for _, s := range secrets {
					fmt.Fprintln(cmd.OutOrStdout(), s.Name)
				}
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a secret and all of its versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := secretstore.ResolveID(args[0], secretParents(a.cfg)...)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(service *credentials.Service) error {
				return service.DeleteSecret(cmd.Context(), id)
			})
		},
	}

	cmd.AddCommand(list, remove)
	return cmd
}

func newCredentialsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Read stored user credentials",
	}

	get := &cobra.Command{
		Use:   "get NAME",
		Short: "Print the latest credentials stored under NAME, a secret id or full secret name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := secretstore.ResolveID(args[0], secretParents(a.cfg)...)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(service *credentials.Service) error {
				creds, err := service.RetrieveUserCredentials(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), models.NewCredentialsResponse(id, *creds))
			})
		},
	}

	cmd.AddCommand(get)
	return cmd
}

// withService opens the configured store for the duration of fn
func (a *app) withService(cmd *cobra.Command, fn func(*credentials.Service) error) error {
	store, closeStore, err := openStore(cmd.Context(), a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(credentials.NewService(store, a.logger))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
