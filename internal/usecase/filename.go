package usecase

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
)

// extension -> MIME type the content must sniff as
var allowedImageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// sanitizeName keeps ASCII letters, digits, '.' and '_'.
func sanitizeName(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// imageFileName builds "{code}_{ordinal}_{original}" from sanitized parts.
func imageFileName(code string, ordinal int, original string) string {
	c := sanitizeName(code)
	if c == "" {
		c = "item"
	}
	n := sanitizeName(filepath.Base(original))
	if strings.Trim(n, ".") == "" {
		n = "image"
	}
	return fmt.Sprintf("%s_%d_%s", c, ordinal, n)
}

// checkImage accepts PNG and JPEG only. The extension and the sniffed
// content must agree. It returns the image format ("png" or "jpeg").
func checkImage(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	expected, ok := allowedImageTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: extension %q", entity.ErrUnsupportedImage, ext)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: file is empty", entity.ErrUnsupportedImage)
	}
	detected := mimetype.Detect(data)
	if !detected.Is(expected) {
		return "", fmt.Errorf("%w: %s content is %s", entity.ErrUnsupportedImage, ext, detected.String())
	}
	return strings.TrimPrefix(expected, "image/"), nil
}
