// Package docstore holds document store implementations for the assembled
// harvest output. The abstraction keeps the application independent of where
// the document lands (local filesystem, memory, or nowhere at all).
package docstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fixwire/fixharvest/internal/docstore/local"
	"github.com/fixwire/fixharvest/internal/docstore/memory"
	"github.com/fixwire/fixharvest/internal/harvest"
)

// NoopStore discards documents. It is useful for dry runs where pages are
// fetched and extracted but nothing is written.
type NoopStore struct{}

// Save for NoopStore does nothing and reports no location.
func (NoopStore) Save(_ context.Context, _ *harvest.Document) (string, error) {
	return "", nil
}

// New selects the document store for the configured backend.
func New(backend string, localCfg local.Config, hasher harvest.Hasher, logger *zap.Logger) (harvest.DocumentStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch backend {
	case "local":
		logger.Info("using local document store", zap.String("dir", localCfg.Dir))
		store, err := local.New(localCfg, hasher, logger)
		if err != nil {
			return nil, fmt.Errorf("local document store init failed: %w", err)
		}
		return store, nil
	case "memory":
		logger.Info("using in-memory document store")
		return memory.New(localCfg.Filename), nil
	case "noop":
		logger.Info("document persistence disabled")
		return NoopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown output backend %q", backend)
	}
}
