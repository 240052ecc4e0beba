package usecase

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/domain/repository"
	"github.com/yourusername/mobit-catalog/internal/metrics"
)

// ExportFormat download format of the catalog
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// seedSource is the Catalog.Source of a session started from the sample table.
const seedSource = "seed"

// CatalogUseCase session lifecycle, edits and persistence of the catalog
type CatalogUseCase interface {
	// OpenSession loads the catalog file into a new session
	OpenSession(ctx context.Context) (*entity.Session, error)

	// Session returns a snapshot of a session
	Session(ctx context.Context, sessionID string) (*entity.Session, error)

	// CloseSession drops a session
	CloseSession(ctx context.Context, sessionID string) error

	// PopNotices returns and clears pending notices
	PopNotices(ctx context.Context, sessionID string) ([]entity.Notice, error)

	// Notify queues a notice for the next render
	Notify(ctx context.Context, sessionID string, level entity.NoticeLevel, text string) error

	// UpdateCell sets one field of one row
	UpdateCell(ctx context.Context, sessionID string, index int, field entity.Field, value string) error

	// UpdateRow replaces one row
	UpdateRow(ctx context.Context, sessionID string, index int, product entity.Product) error

	// AddRow appends a row and returns its index
	AddRow(ctx context.Context, sessionID string, product entity.Product) (int, error)

	// RemoveRow deletes one row
	RemoveRow(ctx context.Context, sessionID string, index int) error

	// ReplaceRows replaces the whole table (grid submit)
	ReplaceRows(ctx context.Context, sessionID string, rows []entity.Product) error

	// Save writes the session catalog to the catalog file
	Save(ctx context.Context, sessionID string) (int, error)

	// Reload discards edits and re-reads the catalog file
	Reload(ctx context.Context, sessionID string) (int, error)

	// Reset replaces the session catalog with the sample table
	Reset(ctx context.Context, sessionID string) error

	// Export serializes the session catalog for download
	Export(ctx context.Context, sessionID string, format ExportFormat) ([]byte, error)

	// Import replaces the session catalog with an uploaded CSV or XLSX file
	Import(ctx context.Context, sessionID, filename string, data []byte) (int, error)

	// RenderText renders the session catalog as a plain-text table
	RenderText(ctx context.Context, sessionID string) (string, error)

	// Activity returns the newest recorded actions
	Activity(ctx context.Context, limit int) ([]entity.Activity, error)

	// ExpireSessions drops idle sessions
	ExpireSessions(ctx context.Context) (int, error)
}

type catalogUseCase struct {
	store       repository.CatalogStore
	sessions    repository.SessionRepository
	activity    repository.ActivityRepository
	spreadsheet repository.SpreadsheetCodec
	seedRows    []entity.Product
	catalogPath string
	logger      *zap.Logger
}

// NewCatalogUseCase creates the catalog use case
func NewCatalogUseCase(
	store repository.CatalogStore,
	sessions repository.SessionRepository,
	activity repository.ActivityRepository,
	spreadsheet repository.SpreadsheetCodec,
	seedRows []entity.Product,
	catalogPath string,
	logger *zap.Logger,
) CatalogUseCase {
	return &catalogUseCase{
		store:       store,
		sessions:    sessions,
		activity:    activity,
		spreadsheet: spreadsheet,
		seedRows:    seedRows,
		catalogPath: catalogPath,
		logger:      logger,
	}
}

// OpenSession loads the catalog file into a new session. A missing file
// starts the session from the sample table; an unreadable one starts it empty.
func (u *catalogUseCase) OpenSession(ctx context.Context) (*entity.Session, error) {
	session := entity.Session{ID: uuid.New().String()}

	catalog, exists, err := u.store.Load(ctx, u.catalogPath)
	metrics.RecordLoad("csv", err)
	switch {
	case err != nil:
		u.logger.Error("failed to load catalog", zap.String("path", u.catalogPath), zap.Error(err))
		session.Catalog = entity.Catalog{Products: []entity.Product{}, Source: u.catalogPath, LoadedAt: time.Now()}
		notify(&session, entity.NoticeError, fmt.Sprintf("Could not read %s: %v", u.catalogPath, err))
	case !exists:
		session.Catalog = u.seedCatalog()
		notify(&session, entity.NoticeInfo,
			fmt.Sprintf("%s not found, showing the sample table. Save to create the file.", u.catalogPath))
	default:
		session.Catalog = *catalog
		notify(&session, entity.NoticeWarning, catalog.Warnings...)
	}

	if err := u.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	metrics.SessionsActive.Inc()

	u.logger.Info("session opened",
		zap.String("session", session.ID),
		zap.String("source", session.Catalog.Source),
		zap.Int("rows", len(session.Catalog.Products)))
	return u.sessions.Get(ctx, session.ID)
}

// Session returns a snapshot of a session
func (u *catalogUseCase) Session(ctx context.Context, sessionID string) (*entity.Session, error) {
	return u.sessions.Get(ctx, sessionID)
}

// CloseSession drops a session
func (u *catalogUseCase) CloseSession(ctx context.Context, sessionID string) error {
	if err := u.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	metrics.SessionsActive.Dec()
	return nil
}

// PopNotices returns and clears pending notices
func (u *catalogUseCase) PopNotices(ctx context.Context, sessionID string) ([]entity.Notice, error) {
	var notices []entity.Notice
	err := u.sessions.Update(ctx, sessionID, func(s *entity.Session) error {
		notices = s.Notices
		s.Notices = nil
		return nil
	})
	return notices, err
}

// Notify queues a notice for the next render
func (u *catalogUseCase) Notify(ctx context.Context, sessionID string, level entity.NoticeLevel, text string) error {
	return u.sessions.Update(ctx, sessionID, func(s *entity.Session) error {
		notify(s, level, text)
		return nil
	})
}

// UpdateCell sets one field of one row
func (u *catalogUseCase) UpdateCell(ctx context.Context, sessionID string, index int, field entity.Field, value string) error {
	value = normalizeText(value)
	return u.sessions.Update(ctx, sessionID, func(s *entity.Session) error {
		if err := checkIndex(s, index); err != nil {
			return err
		}
		row := &s.Catalog.Products[index]
		switch field {
		case entity.FieldLocation:
			row.Location = value
		case entity.FieldCode:
			row.Code = value
		case entity.FieldDescription:
			row.Description = value
		case entity.FieldImages:
			row.ImageRefs = entity.DecodeImageRefs(value)
		default:
			return fmt.Errorf("%w: %q", entity.ErrUnknownField, field)
		}
		s.Dirty = true
		return nil
	})
}

// UpdateRow replaces one row
func (u *catalogUseCase) UpdateRow(ctx context.Context, sessionID string, index int, product entity.Product) error {
	product = normalizeProduct(product)
	return u.sessions.Update(ctx, sessionID, func(s *entity.Session) error {
		if err := checkIndex(s, index); err != nil {
			return err
		}
		if !sameProduct(s.Catalog.Products[index], product) {
			s.Catalog.Products[index] = product
			s.Dirty = true
		}
		return nil
	})
}

// AddRow appends a row and returns its index
func (u *catalogUseCase) AddRow(ctx context.Context, sessionID string, product entity.Product) (int, error) {
	product = normalizeProduct(product)
	index := -1
	err := u.sessions.Update(ctx, sessionID, func(s *entity.Session) error {
		s.Catalog.Products = append(s.Catalog.Products, product)
		index = len(s.Catalog.Products) - 1
		s.Dirty = true
		return nil
	})
	return index, err
}

// RemoveRow deletes one row
func (u *catalogUseCase) RemoveRow(ctx context.Context, sessionID string, index int) error {
	return u.sessions.Update(ctx, sessionID, func(s *entity.Session) error {
		if err := checkIndex(s, index); err != nil {
			return err
		}
		s.Catalog.Products = slices.Delete(s.Catalog.Products, index, index+1)
		s.Dirty = true
		return nil
	})
}

// ReplaceRows replaces the whole table (grid submit)
func (u *catalogUseCase) ReplaceRows(ctx context.Context, sessionID string, rows []entity.Product) error {
	normalized := make([]entity.Product, len(rows))
	for i, p := range rows {
		normalized[i] = normalizeProduct(p)
	}
	return u.sessions.Update(ctx, sessionID, func(s *entity.Session) error {
		if !slices.EqualFunc(s.Catalog.Products, normalized, sameProduct) {
			s.Catalog.Products = normalized
			s.Dirty = true
		}
		return nil
	})
}

// Save writes the session catalog to the catalog file
func (u *catalogUseCase) Save(ctx context.Context, sessionID string) (int, error) {
	rows := 0
	err := u.sessions.Update(ctx, sessionID, func(s *entity.Session) error {
		err := u.store.Save(ctx, s.Catalog, u.catalogPath)
		metrics.RecordSave(err)
		if err != nil {
			return err
		}
		s.Dirty = false
		s.Catalog.Source = u.catalogPath
		rows = len(s.Catalog.Products)
		return nil
	})
	if err != nil {
		u.logger.Error("failed to save catalog", zap.String("session", sessionID), zap.String("path", u.catalogPath), zap.Error(err))
		return 0, err
	}

	u.logger.Info("catalog saved", zap.String("session", sessionID), zap.String("path", u.catalogPath), zap.Int("rows", rows))
	logActivity(ctx, u.activity, u.logger, sessionID, "save", fmt.Sprintf("Saved %d rows to %s", rows, u.catalogPath))
	return rows, nil
}

// Reload discards edits and re-reads the catalog file
func (u *catalogUseCase) Reload(ctx context.Context, sessionID string) (int, error) {
	catalog, exists, err := u.store.Load(ctx, u.catalogPath)
	metrics.RecordLoad("csv", err)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("reload %s: %w", u.catalogPath, fs.ErrNotExist)
	}

	err = u.sessions.Update(ctx, sessionID, func(s *entity.Session) error {
		s.Catalog = *catalog
		s.Dirty = false
		notify(s, entity.NoticeWarning, catalog.Warnings...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(catalog.Products), nil
}

// Reset replaces the session catalog with the sample table. Nothing is
// written until the next save.
func (u *catalogUseCase) Reset(ctx context.Context, sessionID string) error {
	err := u.sessions.Update(ctx, sessionID, func(s *entity.Session) error {
		s.Catalog = u.seedCatalog()
		s.Dirty = true
		return nil
	})
	if err != nil {
		return err
	}
	logActivity(ctx, u.activity, u.logger, sessionID, "reset", fmt.Sprintf("Reset to %d sample rows", len(u.seedRows)))
	return nil
}

// Export serializes the session catalog for download
func (u *catalogUseCase) Export(ctx context.Context, sessionID string, format ExportFormat) ([]byte, error) {
	session, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch format {
	case ExportCSV:
		return u.store.Encode(ctx, session.Catalog)
	case ExportXLSX:
		return u.spreadsheet.EncodeCatalog(ctx, session.Catalog)
	}
	return nil, fmt.Errorf("%w: %q", entity.ErrUnsupportedFormat, format)
}

// Import replaces the session catalog with an uploaded CSV or XLSX file
func (u *catalogUseCase) Import(ctx context.Context, sessionID, filename string, data []byte) (int, error) {
	var (
		catalog *entity.Catalog
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		catalog, err = u.spreadsheet.ParseProductsFromBytes(ctx, data, filename)
		metrics.RecordLoad("xlsx", err)
	case ".csv":
		catalog, err = u.store.Decode(ctx, data, filename)
		metrics.RecordLoad("upload", err)
	default:
		return 0, fmt.Errorf("%w: %s (expected .csv or .xlsx)", entity.ErrUnsupportedFormat, filename)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to import %s: %w", filename, err)
	}

	err = u.sessions.Update(ctx, sessionID, func(s *entity.Session) error {
		s.Catalog = *catalog
		s.Dirty = true
		notify(s, entity.NoticeWarning, catalog.Warnings...)
		return nil
	})
	if err != nil {
		return 0, err
	}

	rows := len(catalog.Products)
	logActivity(ctx, u.activity, u.logger, sessionID, "import", fmt.Sprintf("Imported %d rows from %s", rows, filename))
	return rows, nil
}

// RenderText renders the session catalog as a plain-text table
func (u *catalogUseCase) RenderText(ctx context.Context, sessionID string) (string, error) {
	session, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return renderTable(session.Catalog.Products), nil
}

// Activity returns the newest recorded actions
func (u *catalogUseCase) Activity(ctx context.Context, limit int) ([]entity.Activity, error) {
	return u.activity.Recent(ctx, limit)
}

// ExpireSessions drops idle sessions
func (u *catalogUseCase) ExpireSessions(ctx context.Context) (int, error) {
	removed, err := u.sessions.Expire(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		metrics.SessionsActive.Sub(float64(removed))
		u.logger.Info("expired idle sessions", zap.Int("count", removed))
	}
	return removed, nil
}

func (u *catalogUseCase) seedCatalog() entity.Catalog {
	products := make([]entity.Product, len(u.seedRows))
	for i, p := range u.seedRows {
		products[i] = p.Clone()
	}
	return entity.Catalog{Products: products, Source: seedSource, LoadedAt: time.Now()}
}

func renderTable(products []entity.Product) string {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{p.Location, p.Code, p.Description, strings.Join(p.ImageRefs, entity.ImageRefSeparator)})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(entity.Header...).
		Rows(rows...)
	return t.String() + "\n"
}

func checkIndex(s *entity.Session, index int) error {
	if index < 0 || index >= len(s.Catalog.Products) {
		return fmt.Errorf("%w: %d (table has %d rows)", entity.ErrRowOutOfRange, index, len(s.Catalog.Products))
	}
	return nil
}

// normalizeText turns browser CRLF line endings into LF.
func normalizeText(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func normalizeProduct(p entity.Product) entity.Product {
	p.Location = normalizeText(p.Location)
	p.Code = normalizeText(p.Code)
	p.Description = normalizeText(p.Description)
	if len(p.ImageRefs) == 0 {
		p.ImageRefs = nil
	} else {
		p.ImageRefs = append([]string(nil), p.ImageRefs...)
	}
	return p
}

func sameProduct(a, b entity.Product) bool {
	return a.Location == b.Location &&
		a.Code == b.Code &&
		a.Description == b.Description &&
		slices.Equal(a.ImageRefs, b.ImageRefs)
}
