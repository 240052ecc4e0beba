package repository

import (
	"context"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
)

// SpreadsheetCodec converts catalogs to and from Excel workbooks
type SpreadsheetCodec interface {
	// ParseProductsFromBytes reads products from the first sheet of a workbook
	ParseProductsFromBytes(ctx context.Context, data []byte, filename string) (*entity.Catalog, error)

	// EncodeCatalog writes the catalog into a new workbook
	EncodeCatalog(ctx context.Context, catalog entity.Catalog) ([]byte, error)
}
