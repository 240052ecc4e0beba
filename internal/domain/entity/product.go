package entity

import (
	"strings"
	"time"
)

// Column headers of the catalog CSV, in file order.
const (
	ColumnLocation    = "Rua"
	ColumnCode        = "Código"
	ColumnDescription = "Descrição"
	ColumnImages      = "Imagem do produto"
)

// Header is the fixed catalog header.
var Header = []string{ColumnLocation, ColumnCode, ColumnDescription, ColumnImages}

// Product one catalog row
type Product struct {
	Location    string   `json:"location" yaml:"location"`
	Code        string   `json:"code" yaml:"code"`
	Description string   `json:"description" yaml:"description"`
	ImageRefs   []string `json:"image_refs" yaml:"image_refs"`
}

// Clone returns a copy that shares no slice memory with p.
func (p Product) Clone() Product {
	if p.ImageRefs != nil {
		p.ImageRefs = append([]string(nil), p.ImageRefs...)
	}
	return p
}

// Catalog the in-memory product table
type Catalog struct {
	Products []Product
	Source   string // CSV path or uploaded file name
	LoadedAt time.Time
	Warnings []string // non-fatal problems found while loading
}

// Clone deep-copies the catalog.
func (c Catalog) Clone() Catalog {
	out := c
	out.Products = make([]Product, len(c.Products))
	for i, p := range c.Products {
		out.Products[i] = p.Clone()
	}
	out.Warnings = append([]string(nil), c.Warnings...)
	return out
}

// IndexOf returns the index of the first row whose code equals code, or -1.
func (c *Catalog) IndexOf(code string) int {
	for i, p := range c.Products {
		if p.Code == code {
			return i
		}
	}
	return -1
}

// Codes returns the distinct codes in first-seen order. Blank codes are skipped.
func (c *Catalog) Codes() []string {
	seen := make(map[string]struct{}, len(c.Products))
	codes := make([]string, 0, len(c.Products))
	for _, p := range c.Products {
		if strings.TrimSpace(p.Code) == "" {
			continue
		}
		if _, ok := seen[p.Code]; ok {
			continue
		}
		seen[p.Code] = struct{}{}
		codes = append(codes, p.Code)
	}
	return codes
}
