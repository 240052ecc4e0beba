package repository

import (
	"context"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
)

// CatalogStore reads and writes the catalog file
type CatalogStore interface {
	// Load reads the catalog at path. A missing file yields an empty catalog
	// and exists=false; malformed lines are skipped and reported in Warnings.
	Load(ctx context.Context, path string) (catalog *entity.Catalog, exists bool, err error)

	// Save overwrites path with the full catalog
	Save(ctx context.Context, catalog entity.Catalog, path string) error

	// Encode serializes the catalog without touching the filesystem
	Encode(ctx context.Context, catalog entity.Catalog) ([]byte, error)

	// Decode parses catalog bytes, e.g. an uploaded CSV
	Decode(ctx context.Context, data []byte, source string) (*entity.Catalog, error)
}
