package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bucketry/bucketry"
	"github.com/bucketry/bucketry/config"
	"github.com/bucketry/bucketry/credstore"
	"github.com/bucketry/bucketry/s3"
)

// initStorage builds the storage engine from the loaded configuration.
func initStorage(ctx context.Context, cmd *cobra.Command) (*bucketry.Storage, *config.Config, error) {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	settings := cfg.Storage.Settings()
	if err := settings.Validate(); err != nil {
		return nil, nil, err
	}

	store, err := credstore.NewStore(cfg.Credentials)
	if err != nil {
		return nil, nil, fmt.Errorf("load credentials: %w", err)
	}

	backends, err := s3.NewBackends(ctx, settings, store)
	if err != nil {
		return nil, nil, fmt.Errorf("create backends: %w", err)
	}

	storage, err := bucketry.NewStorage(settings, backends)
	if err != nil {
		return nil, nil, fmt.Errorf("create storage: %w", err)
	}

	return storage, cfg, nil
}
