package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/metrics"
	"github.com/yourusername/mobit-catalog/internal/usecase"
)

type pageData struct {
	Catalog         entity.Catalog
	Dirty           bool
	Notices         []entity.Notice
	Codes           []string
	Search          *entity.SearchResult
	MaxImages       int
	DescribeEnabled bool
}

// index renders the grid, the upload form and the search section
func (h *Handler) index(c *gin.Context) {
	ctx := c.Request.Context()
	sid := sessionID(c)

	session, err := h.catalog.Session(ctx, sid)
	if err != nil {
		h.fail(c, err)
		return
	}
	notices, err := h.catalog.PopNotices(ctx, sid)
	if err != nil {
		h.logger.Warn("failed to pop notices", zap.Error(err))
	}

	result, err := h.search.Search(ctx, sid, c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, asked := c.GetQuery("q"); asked {
		metrics.RecordSearch(string(result.State), "web")
	}
	for i := range result.Hits {
		linkImages(result.Hits[i].Index, result.Hits[i].Images)
	}

	c.HTML(http.StatusOK, "index.html", pageData{
		Catalog:         session.Catalog,
		Dirty:           session.Dirty,
		Notices:         notices,
		Codes:           session.Catalog.Codes(),
		Search:          result,
		MaxImages:       h.opts.MaxImages,
		DescribeEnabled: h.opts.DescribeEnabled,
	})
}

// submitGrid applies the whole edited grid. Inputs arrive as parallel
// arrays, one entry per row; "delete" carries the indexes to drop.
func (h *Handler) submitGrid(c *gin.Context) {
	locations := c.PostFormArray("location")
	codes := c.PostFormArray("code")
	descriptions := c.PostFormArray("description")
	images := c.PostFormArray("images")

	n := len(codes)
	if len(locations) != n || len(descriptions) != n || len(images) != n {
		h.flash(c, entity.NoticeError, "The table submission was incomplete, nothing was changed.")
		h.redirectHome(c)
		return
	}

	deleted := make(map[int]bool)
	for _, raw := range c.PostFormArray("delete") {
		if i, err := strconv.Atoi(raw); err == nil {
			deleted[i] = true
		}
	}

	rows := make([]entity.Product, 0, n)
	for i := 0; i < n; i++ {
		if deleted[i] {
			continue
		}
		rows = append(rows, entity.Product{
			Location:    locations[i],
			Code:        codes[i],
			Description: descriptions[i],
			ImageRefs:   entity.DecodeImageRefs(images[i]),
		})
	}

	if err := h.catalog.ReplaceRows(c.Request.Context(), sessionID(c), rows); err != nil {
		h.flash(c, entity.NoticeError, fmt.Sprintf("Could not apply the table: %v", err))
	} else {
		h.flash(c, entity.NoticeInfo, "Table updated. Save to write it to disk.")
	}
	h.redirectHome(c)
}

// addRow appends a row from the add-row form
func (h *Handler) addRow(c *gin.Context) {
	product := entity.Product{
		Location:    c.PostForm("location"),
		Code:        c.PostForm("code"),
		Description: c.PostForm("description"),
	}
	if _, err := h.catalog.AddRow(c.Request.Context(), sessionID(c), product); err != nil {
		h.flash(c, entity.NoticeError, fmt.Sprintf("Could not add the row: %v", err))
	}
	h.redirectHome(c)
}

func (h *Handler) deleteRow(c *gin.Context) {
	index, ok := h.rowIndex(c)
	if !ok {
		return
	}
	if err := h.catalog.RemoveRow(c.Request.Context(), sessionID(c), index); err != nil {
		h.flash(c, entity.NoticeError, fmt.Sprintf("Could not remove row %d: %v", index+1, err))
	}
	h.redirectHome(c)
}

// describeRow fills a row's description from its photos
func (h *Handler) describeRow(c *gin.Context) {
	index, ok := h.rowIndex(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sid := sessionID(c)

	text, err := h.images.SuggestDescription(ctx, sid, index)
	if err == nil {
		err = h.catalog.UpdateCell(ctx, sid, index, entity.FieldDescription, text)
	}
	if err != nil {
		h.flash(c, entity.NoticeError, fmt.Sprintf("No description suggested for row %d: %v", index+1, err))
	} else {
		h.flash(c, entity.NoticeSuccess, fmt.Sprintf("Row %d description set to %q.", index+1, text))
	}
	h.redirectHome(c)
}

// uploadImages attaches the uploaded files to the selected code
func (h *Handler) uploadImages(c *gin.Context) {
	ctx := c.Request.Context()
	sid := sessionID(c)

	code, uploads, err := h.readUploads(c)
	if err != nil {
		h.flash(c, entity.NoticeError, fmt.Sprintf("Upload failed: %v", err))
		h.redirectHome(c)
		return
	}

	result, err := h.images.Attach(ctx, sid, code, uploads)
	if errors.Is(err, entity.ErrNoUploads) {
		h.flash(c, entity.NoticeWarning, "Choose at least one PNG or JPEG file.")
	} else if err != nil {
		h.flash(c, entity.NoticeError, fmt.Sprintf("Upload failed: %v", err))
	} else {
		h.reportAttach(ctx, sid, result)
	}
	h.redirectHome(c)
}

func (h *Handler) reportAttach(ctx context.Context, sid string, result *entity.AttachResult) {
	notify := func(level entity.NoticeLevel, text string) {
		if err := h.catalog.Notify(ctx, sid, level, text); err != nil {
			h.logger.Warn("failed to queue notice", zap.Error(err))
		}
	}

	if !result.Found {
		notify(entity.NoticeError, fmt.Sprintf("No product with code %q.", result.Code))
		return
	}
	if len(result.Saved) > 0 {
		notify(entity.NoticeSuccess, fmt.Sprintf("Saved %d image(s) for %s. Save the catalog to keep the links.", len(result.Saved), result.Code))
	}
	for _, issue := range result.Rejected {
		notify(entity.NoticeWarning, fmt.Sprintf("%s was not saved: %s", issue.Filename, issue.Reason))
	}
	if len(result.Ignored) > 0 {
		notify(entity.NoticeWarning, fmt.Sprintf("Ignored %s: a product holds at most %d images.",
			strings.Join(result.Ignored, ", "), h.opts.MaxImages))
	}
}

// readUploads parses the multipart upload form
func (h *Handler) readUploads(c *gin.Context) (string, []entity.Upload, error) {
	if h.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return "", nil, err
	}

	code := c.PostForm("code")
	files := form.File["files"]
	uploads := make([]entity.Upload, 0, len(files))
	for _, fh := range files {
		data, err := readFormFile(fh)
		if err != nil {
			return "", nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, entity.Upload{Filename: fh.Filename, Data: data})
	}
	return code, uploads, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *Handler) save(c *gin.Context) {
	rows, err := h.catalog.Save(c.Request.Context(), sessionID(c))
	if err != nil {
		h.flash(c, entity.NoticeError, fmt.Sprintf("Save failed: %v", err))
	} else {
		h.flash(c, entity.NoticeSuccess, fmt.Sprintf("Catalog saved (%d rows).", rows))
	}
	h.redirectHome(c)
}

func (h *Handler) reload(c *gin.Context) {
	rows, err := h.catalog.Reload(c.Request.Context(), sessionID(c))
	if err != nil {
		h.flash(c, entity.NoticeError, fmt.Sprintf("Reload failed: %v", err))
	} else {
		h.flash(c, entity.NoticeInfo, fmt.Sprintf("Reloaded %d rows from disk.", rows))
	}
	h.redirectHome(c)
}

func (h *Handler) reset(c *gin.Context) {
	if err := h.catalog.Reset(c.Request.Context(), sessionID(c)); err != nil {
		h.flash(c, entity.NoticeError, fmt.Sprintf("Reset failed: %v", err))
	} else {
		h.flash(c, entity.NoticeInfo, "Sample table restored. Save to write it to disk.")
	}
	h.redirectHome(c)
}

// importCatalog replaces the table with an uploaded CSV or XLSX file
func (h *Handler) importCatalog(c *gin.Context) {
	if h.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		h.flash(c, entity.NoticeWarning, "Choose a .csv or .xlsx file to import.")
		h.redirectHome(c)
		return
	}
	data, err := readFormFile(fh)
	if err == nil {
		var rows int
		rows, err = h.catalog.Import(c.Request.Context(), sessionID(c), fh.Filename, data)
		if err == nil {
			h.flash(c, entity.NoticeInfo, fmt.Sprintf("Imported %d rows from %s. Save to write them to disk.", rows, fh.Filename))
		}
	}
	if err != nil {
		h.flash(c, entity.NoticeError, fmt.Sprintf("Import failed: %v", err))
	}
	h.redirectHome(c)
}

func (h *Handler) export(format usecase.ExportFormat) gin.HandlerFunc {
	contentType := "text/csv; charset=utf-8"
	if format == usecase.ExportXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	filename := "produtos." + string(format)

	return func(c *gin.Context) {
		data, err := h.catalog.Export(c.Request.Context(), sessionID(c), format)
		if err != nil {
			h.flash(c, entity.NoticeError, fmt.Sprintf("Export failed: %v", err))
			h.redirectHome(c)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, contentType, data)
	}
}

func (h *Handler) catalogText(c *gin.Context) {
	text, err := h.catalog.RenderText(c.Request.Context(), sessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// rowImage serves one image ref of a session row. Only files the catalog
// references can be reached.
func (h *Handler) rowImage(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid row")
		return
	}
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid image")
		return
	}

	path, err := h.images.RowImage(c.Request.Context(), sessionID(c), index, n)
	if err != nil {
		c.String(httpStatus(err), err.Error())
		return
	}
	c.Header("Cache-Control", "no-store")
	c.File(path)
}

func (h *Handler) rowIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.flash(c, entity.NoticeError, fmt.Sprintf("Invalid row %q.", c.Param("index")))
		h.redirectHome(c)
		return 0, false
	}
	return index, true
}

func (h *Handler) flash(c *gin.Context, level entity.NoticeLevel, text string) {
	if err := h.catalog.Notify(c.Request.Context(), sessionID(c), level, text); err != nil {
		h.logger.Warn("failed to queue notice", zap.String("text", text), zap.Error(err))
	}
}

func (h *Handler) redirectHome(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.String(httpStatus(err), err.Error())
}
