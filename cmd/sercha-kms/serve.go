package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kms/internal/adapters/driven/auth"
	"github.com/custodia-labs/sercha-kms/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-kms/internal/core/services"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the search API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if cfg.Auth.JWTSecret == "" {
				log.Println("Warning: auth.jwt_secret is empty, using development secret")
				cfg.Auth.JWTSecret = "development-secret-change-in-production"
			}

			log.Printf("sercha-kms %s starting", version)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			deps := http.Dependencies{
				AuthService:         services.NewAuthService(auth.NewAdapter(cfg.Auth.JWTSecret)),
				SearchService:       a.search,
				AugmentationService: a.augmentation,
				ConversationService: a.conversations,
				RuntimeConfig:       a.runtimeConfig,
				DB:                  a.db,
				Embedding:           http.PingerFunc(a.services.CheckEmbedding),
				LLM:                 http.PingerFunc(a.services.CheckLLM),
			}
			if a.redisClient != nil {
				deps.Redis = http.PingerFunc(func(ctx context.Context) error {
					return a.redisClient.Ping(ctx).Err()
				})
			}

			server := http.NewServer(http.Config{
				Host:           cfg.Server.Host,
				Port:           cfg.Server.Port,
				Version:        version,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Logger:         logger,
			}, deps)

			return server.Start(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}
