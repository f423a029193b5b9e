package cli

import (
	"context"

	"go.uber.org/zap"

	"github.com/charliek/objstore/internal/config"
	"github.com/charliek/objstore/internal/objstore"
	"github.com/charliek/objstore/internal/storage"
)

// StoreContext holds the backend and facade for one command
type StoreContext struct {
	Config  *config.Config
	Backend storage.Backend
	Store   *objstore.Store
}

// NewStoreContext opens the configured backend and wraps it in the facade
func NewStoreContext(ctx context.Context, cfg *config.Config) (*StoreContext, error) {
	backend, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	log.Debug("opened backend",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("location", storage.Describe(backend)),
	)

	return &StoreContext{
		Config:  cfg,
		Backend: backend,
		Store:   objstore.New(backend, log),
	}, nil
}

// Describe returns the bucket location for messages
func (sc *StoreContext) Describe() string {
	return storage.Describe(sc.Backend)
}

// Close releases resources held by the StoreContext
func (sc *StoreContext) Close() error {
	return sc.Backend.Close()
}
