package repository

import (
	"context"
)

// DescriptionGenerator suggests product descriptions from photos
type DescriptionGenerator interface {
	// DescribeProduct returns a short description for the given images
	DescribeProduct(ctx context.Context, code string, images []ImageBlob) (string, error)
}

// ImageBlob an image passed to the generator
type ImageBlob struct {
	Format string // "png" or "jpeg"
	Data   []byte
}
