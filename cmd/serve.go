package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"credentialsManagerAPI/internal/accounts"
	"credentialsManagerAPI/internal/auth"
	"credentialsManagerAPI/internal/config"
	"credentialsManagerAPI/internal/credentials"
	"credentialsManagerAPI/internal/handlers"
	"credentialsManagerAPI/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateServer(); err != nil {
				return err
			}
			return serve(cmd.Context(), a.cfg, a.logger)
		},
	}

	cmd.Flags().String(config.KeyListen, ":8080", "address the HTTP server listens on")
	cmd.Flags().Duration(config.KeyTokenDuration, 24*time.Hour, "lifetime of issued tokens")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.SecretKey, cfg.TokenDuration, cfg.TokenIssuer)

	// Initialize handlers
	service := credentials.NewService(store, logger)
	userHandler := handlers.NewUserHandler(accounts.NewRepository(store), service, jwtManager, logger)
	credentialsHandler := handlers.NewCredentialsHandler(service, logger)

	// Setup router
	router := server.NewRouter(jwtManager, userHandler, credentialsHandler, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", cfg.Listen), zap.String("backend", cfg.Backend))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
