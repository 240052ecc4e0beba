package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/domain/repository"
	"github.com/yourusername/mobit-catalog/internal/metrics"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvCatalogStore struct {
	logger *zap.Logger
}

// NewCSVCatalogStore CSV-backed catalog store
func NewCSVCatalogStore(logger *zap.Logger) repository.CatalogStore {
	return &csvCatalogStore{logger: logger}
}

// Load reads the catalog file
func (s *csvCatalogStore) Load(ctx context.Context, path string) (*entity.Catalog, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("catalog file not found, starting empty", zap.String("path", path))
		return &entity.Catalog{Products: []entity.Product{}, Source: path, LoadedAt: time.Now()}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read catalog %s: %w", path, err)
	}

	catalog, err := s.Decode(ctx, data, path)
	if err != nil {
		return nil, true, err
	}
	s.logger.Info("catalog loaded",
		zap.String("path", path),
		zap.Int("rows", len(catalog.Products)),
		zap.Int("warnings", len(catalog.Warnings)))
	return catalog, true, nil
}

// Decode parses CSV bytes. Lines that cannot be parsed, or carry more
// fields than the header, are skipped with a warning.
func (s *csvCatalogStore) Decode(ctx context.Context, data []byte, source string) (*entity.Catalog, error) {
	catalog := &entity.Catalog{Products: []entity.Product{}, Source: source, LoadedAt: time.Now()}

	data = bytes.TrimPrefix(data, utf8BOM)
	r := newCSVReader(data)
	// physical lines consumed before r's first line
	base := 0

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		catalog.Warnings = append(catalog.Warnings, "catalog file is empty")
		return catalog, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog header from %s: %w", source, err)
	}

	cols, warnings := mapHeader(header)
	catalog.Warnings = append(catalog.Warnings, warnings...)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			line := base + perr.StartLine
			msg := fmt.Sprintf("line %d skipped: %v", line, perr.Err)
			catalog.Warnings = append(catalog.Warnings, msg)
			s.logger.Warn("malformed catalog line", zap.String("source", source), zap.Int("line", line), zap.Error(perr.Err))
			metrics.SkippedLines.Inc()
			// An unterminated quote swallows every following line into one
			// field. Resume on the next physical line so only this one is lost.
			if errors.Is(perr.Err, csv.ErrQuote) {
				base = line
				r = newCSVReader(data[lineOffset(data, line+1):])
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", source, err)
		}

		if len(record) > len(header) {
			line, _ := r.FieldPos(0)
			line += base
			msg := fmt.Sprintf("line %d skipped: expected %d fields, saw %d", line, len(header), len(record))
			catalog.Warnings = append(catalog.Warnings, msg)
			s.logger.Warn("malformed catalog line", zap.String("source", source), zap.Int("line", line), zap.Int("fields", len(record)))
			metrics.SkippedLines.Inc()
			continue
		}

		catalog.Products = append(catalog.Products, cols.product(record))
	}

	return catalog, nil
}

func newCSVReader(data []byte) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	return r
}

// lineOffset returns the byte offset where 1-based line n starts, or
// len(data) when data has fewer lines.
func lineOffset(data []byte, n int) int {
	off := 0
	for i := 1; i < n; i++ {
		j := bytes.IndexByte(data[off:], '\n')
		if j < 0 {
			return len(data)
		}
		off += j + 1
	}
	return off
}

// Encode serializes the catalog with the fixed header
func (s *csvCatalogStore) Encode(ctx context.Context, catalog entity.Catalog) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(entity.Header); err != nil {
		return nil, err
	}
	for i, p := range catalog.Products {
		refs, err := entity.EncodeImageRefs(p.ImageRefs)
		if err != nil {
			return nil, fmt.Errorf("row %d (code %q): %w", i+1, p.Code, err)
		}
		if err := w.Write([]string{p.Location, p.Code, p.Description, refs}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the catalog through a temp file and rename. The target
// directory must already exist.
func (s *csvCatalogStore) Save(ctx context.Context, catalog entity.Catalog, path string) error {
	data, err := s.Encode(ctx, catalog)
	if err != nil {
		return fmt.Errorf("encode catalog for %s: %w", path, err)
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save catalog to %s: %w", path, err)
	}

	s.logger.Info("catalog saved", zap.String("path", path), zap.Int("rows", len(catalog.Products)))
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// columnIndex positions of the catalog columns; -1 when absent
type columnIndex struct {
	location, code, description, images int
}

func (c columnIndex) product(record []string) entity.Product {
	return entity.Product{
		Location:    field(record, c.location),
		Code:        field(record, c.code),
		Description: field(record, c.description),
		ImageRefs:   entity.DecodeImageRefs(field(record, c.images)),
	}
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// mapHeader locates the catalog columns by trimmed, case-insensitive name.
// English aliases are accepted next to the Portuguese headers.
func mapHeader(header []string) (columnIndex, []string) {
	cols := columnIndex{location: -1, code: -1, description: -1, images: -1}
	var warnings []string

	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case strings.ToLower(entity.ColumnLocation), "location", "street":
			if cols.location < 0 {
				cols.location = i
				continue
			}
		case strings.ToLower(entity.ColumnCode), "codigo", "code":
			if cols.code < 0 {
				cols.code = i
				continue
			}
		case strings.ToLower(entity.ColumnDescription), "descricao", "description":
			if cols.description < 0 {
				cols.description = i
				continue
			}
		case strings.ToLower(entity.ColumnImages), "image_refs", "images":
			if cols.images < 0 {
				cols.images = i
				continue
			}
		}
		if name != "" {
			warnings = append(warnings, fmt.Sprintf("column %q is not part of the catalog and will not be saved", strings.TrimSpace(raw)))
		}
	}

	missing := []struct {
		idx  int
		name string
	}{
		{cols.location, entity.ColumnLocation},
		{cols.code, entity.ColumnCode},
		{cols.description, entity.ColumnDescription},
		{cols.images, entity.ColumnImages},
	}
	for _, m := range missing {
		if m.idx < 0 {
			warnings = append(warnings, fmt.Sprintf("column %q missing, filled with empty values", m.name))
		}
	}

	return cols, warnings
}
