// Package dataset loads the static product catalog from disk. Catalog
// files carry the raw product fields; the loader flattens them into the
// descriptive text the index embeds.
package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/intentcart/intentcart/domain/catalog"
)

// Common errors.
var (
	// ErrUnsupportedFormat indicates the catalog file extension is not recognized.
	ErrUnsupportedFormat = errors.New("unsupported catalog format")

	// ErrNoProducts indicates the catalog file contained no products.
	ErrNoProducts = errors.New("catalog file contains no products")
)

// productRecord is the on-disk shape of one catalog product.
type productRecord struct {
	UniqID           string `yaml:"uniq_id" json:"uniq_id"`
	ProductName      string `yaml:"product_name" json:"product_name"`
	AboutProduct     string `yaml:"about_product" json:"about_product"`
	Specification    string `yaml:"product_specification" json:"product_specification"`
	TechnicalDetails string `yaml:"technical_details" json:"technical_details"`
	Description      string `yaml:"description" json:"description"`
}

// combinedText flattens the record's descriptive fields into the single
// string embedded for retrieval.
func (r productRecord) combinedText() string {
	return fmt.Sprintf(
		"About Product: %s\nProduct Specification: %s\nTechnical Details: %s\nDescription: %s",
		r.AboutProduct, r.Specification, r.TechnicalDetails, r.Description,
	)
}

func (r productRecord) validate(position int) error {
	if strings.TrimSpace(r.UniqID) == "" {
		return fmt.Errorf("product %d: missing uniq_id", position)
	}
	if strings.TrimSpace(r.ProductName) == "" {
		return fmt.Errorf("product %d (%s): missing product_name", position, r.UniqID)
	}
	return nil
}

// Load reads a catalog file, dispatching on extension: .yaml/.yml for a
// YAML document, .jsonl/.ndjson for JSON lines.
func Load(path string) ([]catalog.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return LoadYAML(f)
	case ".jsonl", ".ndjson":
		return LoadJSONLines(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// LoadYAML reads a catalog from a YAML document of the form:
//
//	products:
//	  - uniq_id: "..."
//	    product_name: "..."
func LoadYAML(r io.Reader) ([]catalog.Product, error) {
	var doc struct {
		Products []productRecord `yaml:"products"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog yaml: %w", err)
	}
	return toProducts(doc.Products)
}

// LoadJSONLines reads a catalog with one JSON product object per line.
// Blank lines are skipped.
func LoadJSONLines(r io.Reader) ([]catalog.Product, error) {
	var records []productRecord

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record productRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("decode catalog line %d: %w", lineNo, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	return toProducts(records)
}

func toProducts(records []productRecord) ([]catalog.Product, error) {
	if len(records) == 0 {
		return nil, ErrNoProducts
	}

	seen := make(map[string]struct{}, len(records))
	products := make([]catalog.Product, 0, len(records))
	for i, record := range records {
		if err := record.validate(i); err != nil {
			return nil, err
		}
		if _, dup := seen[record.UniqID]; dup {
			return nil, fmt.Errorf("product %d: duplicate uniq_id %s", i, record.UniqID)
		}
		seen[record.UniqID] = struct{}{}

		products = append(products, catalog.NewProduct(
			record.UniqID,
			record.ProductName,
			record.combinedText(),
		))
	}
	return products, nil
}
