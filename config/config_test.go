package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "HTTP_ADDR", "CATALOG_CSV_PATH", "IMAGE_DIR", "SEED_PATH",
		"ACTIVITY_DB_PATH", "MAX_IMAGES_PER_PRODUCT", "MAX_UPLOAD_BYTES",
		"SESSION_TTL_HOURS", "TELEGRAM_BOT_TOKEN", "GEMINI_API_KEY", "GEMINI_MODEL",
		"LOG_LEVEL", "LOG_ENCODING",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8501", cfg.HTTPAddr)
	assert.Equal(t, filepath.Join("datasets", "produtos.csv"), cfg.CatalogPath)
	assert.Equal(t, "imagens_produtos", cfg.ImageDir)
	assert.Equal(t, 3, cfg.MaxImagesPerProduct)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.TelegramToken)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "development")
	t.Setenv("CATALOG_CSV_PATH", "/srv/catalog.csv")
	t.Setenv("MAX_IMAGES_PER_PRODUCT", "2")
	t.Setenv("SESSION_TTL_HOURS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "/srv/catalog.csv", cfg.CatalogPath)
	assert.Equal(t, 2, cfg.MaxImagesPerProduct)
	assert.Equal(t, time.Duration(0), cfg.SessionTTL)
}

func TestLoad_InvalidNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_IMAGES_PER_PRODUCT", "three")

	_, err := Load()
	assert.ErrorContains(t, err, "MAX_IMAGES_PER_PRODUCT")

	for _, v := range []string{"0", "4", "-1"} {
		t.Setenv("MAX_IMAGES_PER_PRODUCT", v)
		_, err = Load()
		assert.ErrorContains(t, err, "between 1 and 3", v)
	}

	t.Setenv("MAX_IMAGES_PER_PRODUCT", "3")
	_, err = Load()
	assert.NoError(t, err)
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		CatalogPath: filepath.Join(dir, "datasets", "produtos.csv"),
		ImageDir:    filepath.Join(dir, "imgs"),
	}

	require.NoError(t, cfg.EnsureDirs())
	require.NoError(t, cfg.EnsureDirs())
	assert.DirExists(t, filepath.Join(dir, "datasets"))
	assert.DirExists(t, filepath.Join(dir, "imgs"))
}
