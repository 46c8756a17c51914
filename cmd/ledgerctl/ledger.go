package main

import (
	"context"
	"fmt"
	"os"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// openService loads the configured slot and returns a service over it.
// Mutations are announced over AMQP when it is configured, so a running
// export worker picks up changes made from the terminal.
func openService(ctx context.Context) (*services.LedgerService, func(), error) {
	logger := cli.SetupLoggerTo(os.Stderr, log.ComponentCLI)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open backend: %w", err)
	}
	store := backend.OpenLedger(ctx, result, backendCfg.Key(), logger)

	var publisher services.Publisher
	var client *amqp.Client
	if cfg.AMQPEnabled() {
		client, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, changes will not be announced", log.FieldError, err)
		} else {
			publisher = client
		}
	}

	closeFn := func() {
		if client != nil {
			_ = client.Close()
		}
		_ = result.Close()
	}
	return services.NewLedgerService(store, publisher, nil, logger), closeFn, nil
}
