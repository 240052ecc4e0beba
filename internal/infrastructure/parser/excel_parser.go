package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/domain/repository"
)

// SheetName is the worksheet written by EncodeCatalog.
const SheetName = "Produtos"

type excelParser struct {
	logger *zap.Logger
}

// NewExcelParser Excel catalog codec
func NewExcelParser(logger *zap.Logger) repository.SpreadsheetCodec {
	return &excelParser{logger: logger}
}

// ParseProductsFromBytes reads the first sheet of a workbook
func (e *excelParser) ParseProductsFromBytes(ctx context.Context, data []byte, filename string) (*entity.Catalog, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel from bytes: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}

	columnMap := e.mapColumns(rows[0])
	codeCol, hasCode := columnMap[entity.FieldCode]

	catalog := &entity.Catalog{Products: []entity.Product{}, Source: filename, LoadedAt: time.Now()}
	for _, fld := range []entity.Field{entity.FieldLocation, entity.FieldCode, entity.FieldDescription, entity.FieldImages} {
		if _, ok := columnMap[fld]; !ok {
			catalog.Warnings = append(catalog.Warnings, fmt.Sprintf("column for %s missing, filled with empty values", fld))
		}
	}

	for i := 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		product := entity.Product{
			Location:    cell(row, columnMap, entity.FieldLocation),
			Code:        strings.TrimSpace(cell(row, columnMap, entity.FieldCode)),
			Description: cell(row, columnMap, entity.FieldDescription),
			ImageRefs:   entity.DecodeImageRefs(cell(row, columnMap, entity.FieldImages)),
		}
		if hasCode && product.Code == "" && codeCol < len(row) {
			catalog.Warnings = append(catalog.Warnings, fmt.Sprintf("row %d has no code", i+1))
		}
		catalog.Products = append(catalog.Products, product)
	}

	e.logger.Info("workbook parsed",
		zap.String("file", filename),
		zap.String("sheet", sheets[0]),
		zap.Int("rows", len(catalog.Products)))
	return catalog, nil
}

// EncodeCatalog writes the catalog into a single-sheet workbook
func (e *excelParser) EncodeCatalog(ctx context.Context, catalog entity.Catalog) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(entity.Header))
	for i, h := range entity.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, p := range catalog.Products {
		refs, err := entity.EncodeImageRefs(p.ImageRefs)
		if err != nil {
			return nil, fmt.Errorf("row %d (code %q): %w", i+1, p.Code, err)
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{p.Location, p.Code, p.Description, refs}
		if err := f.SetSheetRow(SheetName, cellName, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "B", 14); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetName, "C", "D", 48); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// mapColumns maps header cells to catalog fields by keyword
func (e *excelParser) mapColumns(header []string) map[entity.Field]int {
	columnMap := make(map[entity.Field]int)

	set := func(f entity.Field, i int) {
		if _, taken := columnMap[f]; !taken {
			columnMap[f] = i
		}
	}

	for i, col := range header {
		colName := strings.ToLower(strings.TrimSpace(col))

		// images first so "foto do código" style headers do not land on the code column
		switch {
		case contains(colName, "imagem", "image", "foto", "photo"):
			set(entity.FieldImages, i)
		case contains(colName, "código", "codigo", "code", "sku", "cod"):
			set(entity.FieldCode, i)
		case contains(colName, "descrição", "descricao", "description", "desc", "nome", "name"):
			set(entity.FieldDescription, i)
		case contains(colName, "rua", "location", "street", "local", "endereço", "prateleira"):
			set(entity.FieldLocation, i)
		default:
			if colName != "" {
				e.logger.Debug("ignoring workbook column", zap.Int("column", i), zap.String("name", colName))
			}
		}
	}

	return columnMap
}

func cell(row []string, columnMap map[entity.Field]int, f entity.Field) string {
	idx, ok := columnMap[f]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// isEmptyRow reports whether every cell is blank
func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func contains(str string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(str, keyword) {
			return true
		}
	}
	return false
}
