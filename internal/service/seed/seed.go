package seed

import (
	_ "embed"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type ProductSeed struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Price         float64  `yaml:"price"`
	OriginalPrice float64  `yaml:"original_price"`
	Category      string   `yaml:"category"`
	Brand         string   `yaml:"brand"`
	Image         string   `yaml:"image"`
	Stock         int      `yaml:"stock"`
	Unit          string   `yaml:"unit"`
	Tags          []string `yaml:"tags"`
}

type CategorySeed struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
}

type CatalogSeed struct {
	Categories []CategorySeed `yaml:"categories"`
	Products   []ProductSeed  `yaml:"products"`
}

// LoadCatalog path 為空時使用內建目錄
func LoadCatalog(path string) (*CatalogSeed, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	}

	catalog := &CatalogSeed{}
	err := yaml.Unmarshal(data, catalog)
	if err != nil {
		return nil, err
	}

	return catalog, nil
}
