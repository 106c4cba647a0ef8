// Command localserver serves the feedback handler over plain HTTP for local
// development, optionally against DynamoDB Local.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"feedback-api/handler"
	"feedback-api/internal/config"
	"feedback-api/internal/integrations/paramstore"
	"feedback-api/internal/localdev"
	"feedback-api/internal/repository"
	"feedback-api/internal/usecase"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	secret := mustEnv("LOCAL_JWT_SECRET")
	port := getEnv("PORT", "8080")
	endpoint := strings.TrimSpace(os.Getenv("DYNAMODB_ENDPOINT"))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	if cfg.NeedsParamStore() {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			slog.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		if err := cfg.ResolveOrigins(ctx, ssmClient); err != nil {
			slog.Error("failed to resolve allowed origins", "err", err)
			os.Exit(1)
		}
	}

	dynamo := awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	store, err := repository.New(dynamo, cfg.TableName)
	if err != nil {
		slog.Error("failed to create feedback store", "err", err)
		os.Exit(1)
	}
	svc, err := usecase.NewFeedbackService(store)
	if err != nil {
		slog.Error("failed to create feedback service", "err", err)
		os.Exit(1)
	}
	h, err := handler.NewHandler(svc, cfg.AllowedOrigins)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	srv, err := localdev.New(h.Handle, secret)
	if err != nil {
		slog.Error("failed to create local server", "err", err)
		os.Exit(1)
	}

	if token, err := localdev.IssueToken(secret, "local-user", "local-user@example.com", 12*time.Hour); err == nil {
		slog.Info("dev token (valid 12h)", "authorization", "Bearer "+token)
	}

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("local feedback server listening", "addr", httpServer.Addr, "table", cfg.TableName, "dynamodb_endpoint", endpoint)
	if err := httpServer.ListenAndServe(); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
