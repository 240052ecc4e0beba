package repository

import (
	"context"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
)

// ImageStore persists product images in a flat directory
type ImageStore interface {
	// Put writes data under name and returns the stored path. An existing
	// file with different content is never overwritten.
	Put(ctx context.Context, name string, data []byte) (string, error)

	// Describe stats an image ref for rendering. Refs outside the image
	// directory are described too.
	Describe(ctx context.Context, path string) entity.ImageView

	// Read returns the bytes of an image ref
	Read(ctx context.Context, path string) ([]byte, error)
}
