package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"feedback-api/handler"
	"feedback-api/internal/config"
	"feedback-api/internal/integrations/paramstore"
	"feedback-api/internal/repository"
	"feedback-api/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
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

	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.TableName)
	if err != nil {
		slog.Error("failed to create feedback store", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
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

	slog.Info("feedback handler ready", "table", cfg.TableName, "allowed_origins", cfg.AllowedOrigins)
	lambda.Start(h.Handle)
}
