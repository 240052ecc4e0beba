// Package seed provides the starter rows of the catalog.
package seed

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Products []entity.Product `yaml:"products"`
}

// Load reads seed rows from path, or the embedded table when path is empty.
func Load(path string) ([]entity.Product, error) {
	if path == "" {
		return Parse(defaultSeed)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML seed document.
func Parse(data []byte) ([]entity.Product, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i, p := range f.Products {
		if _, err := entity.EncodeImageRefs(p.ImageRefs); err != nil {
			return nil, fmt.Errorf("seed row %d: %w", i+1, err)
		}
	}
	if f.Products == nil {
		f.Products = []entity.Product{}
	}
	return f.Products, nil
}
