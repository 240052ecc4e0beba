package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/usecase"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Options tunes the web surface
type Options struct {
	MaxUploadBytes  int64
	MaxImages       int
	DescribeEnabled bool
}

// Handler serves the catalog form UI and the JSON API
type Handler struct {
	catalog usecase.CatalogUseCase
	images  usecase.ImageUseCase
	search  usecase.SearchUseCase
	opts    Options
	logger  *zap.Logger
}

// NewHandler creates the web handler
func NewHandler(
	catalog usecase.CatalogUseCase,
	images usecase.ImageUseCase,
	search usecase.SearchUseCase,
	opts Options,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		catalog: catalog,
		images:  images,
		search:  search,
		opts:    opts,
		logger:  logger,
	}
}

// NewRouter builds the gin engine with every route registered
func (h *Handler) NewRouter() (*gin.Engine, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger), observeRequests())
	router.SetHTMLTemplate(tmpl)
	router.MaxMultipartMemory = h.opts.MaxUploadBytes

	h.RegisterRoutes(router)
	return router, nil
}

// RegisterRoutes registers the page, file and API routes
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pages := router.Group("/", h.sessionMiddleware())
	{
		pages.GET("/", h.index)
		pages.GET("/search", h.index)
		pages.POST("/grid", h.submitGrid)
		pages.POST("/rows", h.addRow)
		pages.POST("/rows/:index/delete", h.deleteRow)
		pages.POST("/rows/:index/describe", h.describeRow)
		pages.GET("/rows/:index/images/:n", h.rowImage)
		pages.POST("/images", h.uploadImages)
		pages.POST("/save", h.save)
		pages.POST("/reload", h.reload)
		pages.POST("/reset", h.reset)
		pages.POST("/import", h.importCatalog)
		pages.GET("/export.csv", h.export(usecase.ExportCSV))
		pages.GET("/export.xlsx", h.export(usecase.ExportXLSX))
		pages.GET("/catalog.txt", h.catalogText)
	}

	api := router.Group("/api", h.sessionMiddleware())
	{
		api.GET("/products", h.apiProducts)
		api.PUT("/products/:index", h.apiUpdateProduct)
		api.POST("/products/:code/images", h.apiAttachImages)
		api.GET("/search", h.apiSearch)
		api.GET("/activity", h.apiActivity)
	}
}

var templateFuncs = template.FuncMap{
	"bytes": func(n int64) string {
		if n < 0 {
			n = 0
		}
		return humanize.IBytes(uint64(n))
	},
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return humanize.Time(t)
	},
	"refs": func(refs []string) string {
		return strings.Join(refs, entity.ImageRefSeparator)
	},
	"add": func(a, b int) int { return a + b },
}

// imageURL is where rowImage serves the n-th image of a row
func imageURL(index, n int) string {
	return fmt.Sprintf("/rows/%d/images/%d", index, n)
}

// linkImages points every existing image at its row-scoped URL
func linkImages(index int, views []entity.ImageView) {
	for n := range views {
		if views[n].Exists {
			views[n].URL = imageURL(index, n)
		}
	}
}

// httpStatus maps domain errors to response codes
func httpStatus(err error) int {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound),
		errors.Is(err, entity.ErrProductNotFound),
		errors.Is(err, entity.ErrImageNotFound),
		errors.Is(err, entity.ErrRowOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrUnknownField),
		errors.Is(err, entity.ErrUnsupportedFormat),
		errors.Is(err, entity.ErrUnsupportedImage),
		errors.Is(err, entity.ErrDelimiterInPath),
		errors.Is(err, entity.ErrUntrimmedPath),
		errors.Is(err, entity.ErrNoUploads):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrNameCollision):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNotConfigured):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
