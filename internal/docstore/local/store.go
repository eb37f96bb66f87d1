// Package local implements a local filesystem document store.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fixwire/fixharvest/internal/harvest"
	"github.com/fixwire/fixharvest/internal/metrics"
)

// jsonIndent matches the four-space indentation of the published documents.
const jsonIndent = "    "

// Config captures the parameters for the local filesystem document store.
type Config struct {
	// Dir is the directory where the document will be written.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Filename is the name of the document file inside Dir.
	Filename string `mapstructure:"filename" yaml:"filename"`
}

// Store writes assembled documents to the local filesystem.
type Store struct {
	dir      string
	filename string
	hasher   harvest.Hasher
	logger   *zap.Logger
}

// New creates a local filesystem-backed document store.
func New(cfg Config, hasher harvest.Hasher, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if strings.TrimSpace(cfg.Filename) == "" {
		return nil, fmt.Errorf("output filename is required")
	}
	if cfg.Filename != filepath.Base(cfg.Filename) {
		return nil, fmt.Errorf("output filename must not contain path separators")
	}

	// Check if the directory exists and is writable.
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			// Directory doesn't exist, try to create it.
			if mkErr := os.MkdirAll(cfg.Dir, 0o750); mkErr != nil {
				return nil, fmt.Errorf("failed to create output directory: %w", mkErr)
			}
		} else {
			// Some other error.
			return nil, fmt.Errorf("failed to stat output directory: %w", err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("output directory path is not a directory")
	}

	// Check for write permissions.
	testFile := filepath.Join(cfg.Dir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("output directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dir:      cfg.Dir,
		filename: cfg.Filename,
		hasher:   hasher,
		logger:   logger,
	}, nil
}

// Save renders the document as indented JSON and writes it to the configured
// file, returning the path of the written file.
func (s *Store) Save(_ context.Context, doc *harvest.Document) (string, error) {
	data, err := json.MarshalIndent(doc, "", jsonIndent)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	path := filepath.Join(s.dir, s.filename)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}

	checksum := ""
	if s.hasher != nil {
		checksum, err = s.hasher.Hash(data)
		if err != nil {
			return "", fmt.Errorf("checksum document: %w", err)
		}
	}

	metrics.ObserveDocumentSaved("local", len(data))
	s.logger.Debug("document written",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
		zap.String("sha256", checksum),
	)
	return path, nil
}
