//go:build !local
// +build !local

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda/xrayconfig"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/japb1998/contacts/internal/api"
	"github.com/japb1998/contacts/internal/config"
	"github.com/japb1998/contacts/internal/logger"
)

func initApp() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg)
	defer func() { _ = log.Sync() }()

	tp, err := xrayconfig.NewTracerProvider(ctx)
	if err != nil {
		log.Fatal("failed to create tracer provider", zap.Error(err))
	}
	defer func(ctx context.Context) {
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("error shutting down tracer provider", zap.Error(err))
		}
	}(ctx)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(xray.Propagator{})

	// connections are reused across invocations, the runtime freezes the
	// process instead of stopping it
	r, cleanup, err := buildRouter(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize", zap.Error(err))
	}
	defer func() { _ = cleanup(ctx) }()

	lambda.Start(otellambda.InstrumentHandler(api.HandlerFunc(r), xrayconfig.WithRecommendedOptions(tp)...))
}
