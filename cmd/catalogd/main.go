package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/mobit-catalog/config"
	"github.com/yourusername/mobit-catalog/internal/domain/repository"
	"github.com/yourusername/mobit-catalog/internal/infrastructure/gemini"
	"github.com/yourusername/mobit-catalog/internal/infrastructure/parser"
	"github.com/yourusername/mobit-catalog/internal/infrastructure/seed"
	"github.com/yourusername/mobit-catalog/internal/infrastructure/storage"
	"github.com/yourusername/mobit-catalog/internal/logging"
	"github.com/yourusername/mobit-catalog/internal/usecase"
)

var (
	// Global flags
	catalogPath string
	imageDir    string
	verbose     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "catalogd",
	Short: "Product catalog browser",
	Long: `catalogd serves the product catalog: an editable table backed by a CSV
file, up to three photos per product code, and search by code.

Run "catalogd serve" to start the web UI and, when TELEGRAM_BOT_TOKEN is set,
the Telegram search bot.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog CSV path (overrides CATALOG_CSV_PATH)")
	rootCmd.PersistentFlags().StringVar(&imageDir, "images", "", "image directory (overrides IMAGE_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd, exportCmd, importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the wired use cases shared by every command
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	catalog usecase.CatalogUseCase
	images  usecase.ImageUseCase
	search  usecase.SearchUseCase

	describe bool
	closers  []func() error
}

// newApp loads configuration and wires stores and use cases
func newApp(ctx context.Context, withGenerator bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if catalogPath != "" {
		cfg.CatalogPath = catalogPath
	}
	if imageDir != "" {
		cfg.ImageDir = imageDir
	}

	logCfg := logging.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding, Development: cfg.IsDevelopment()}
	if verbose {
		logCfg.Level = "debug"
	}
	logger := logging.Must(logCfg)

	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	seedRows, err := seed.Load(cfg.SeedPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	activity := openActivity(cfg, logger)
	a.closers = append(a.closers, activity.Close)

	var generator repository.DescriptionGenerator
	if withGenerator && cfg.GeminiAPIKey != "" {
		gen, closeFn, err := gemini.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Warn("description suggestions disabled", zap.Error(err))
		} else {
			generator = gen
			a.describe = true
			a.closers = append(a.closers, closeFn)
		}
	}

	sessions := storage.NewMemorySessionRepository(cfg.SessionTTL)
	imageStore := storage.NewFileImageStore(cfg.ImageDir, logger)

	a.catalog = usecase.NewCatalogUseCase(storage.NewCSVCatalogStore(logger), sessions, activity,
		parser.NewExcelParser(logger), seedRows, cfg.CatalogPath, logger)
	a.images = usecase.NewImageUseCase(sessions, imageStore, activity, generator, cfg.MaxImagesPerProduct, logger)
	a.search = usecase.NewSearchUseCase(sessions, imageStore)
	return a, nil
}

// openActivity opens the SQLite activity log, falling back to memory
func openActivity(cfg *config.Config, logger *zap.Logger) repository.ActivityRepository {
	repo, err := storage.NewSQLiteActivityRepository(cfg.ActivityDBPath)
	if err != nil {
		logger.Warn("failed to open activity database, keeping activity in memory",
			zap.String("path", cfg.ActivityDBPath), zap.Error(err))
		return storage.NewMemoryActivityRepository(1000)
	}
	logger.Info("activity log opened", zap.String("path", cfg.ActivityDBPath))
	return repo
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
