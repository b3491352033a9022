package service

import (
	"context"
	"strings"

	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	"github.com/RoyceAzure/lab/grocery/internal/service/seed"
	"github.com/shopspring/decimal"
)

type ICatalogService interface {
	// ListProducts category 與 query 為空時不過濾
	// query 比對名稱, 說明, 品牌與標籤, 不分大小寫
	ListProducts(ctx context.Context, category, query string) []model.Product
	GetProduct(ctx context.Context, productID string) (*model.Product, bool)
	ListCategories(ctx context.Context) []model.Category
}

// CatalogService 唯讀目錄, 建立後不再變動
type CatalogService struct {
	categories []model.Category
	products   []model.Product
}

func NewCatalogService(catalog *seed.CatalogSeed) *CatalogService {
	s := &CatalogService{
		categories: make([]model.Category, 0, len(catalog.Categories)),
		products:   make([]model.Product, 0, len(catalog.Products)),
	}
	for _, c := range catalog.Categories {
		s.categories = append(s.categories, model.Category{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Image:       c.Image,
		})
	}
	for _, p := range catalog.Products {
		product := model.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       decimal.NewFromFloat(p.Price),
			Category:    p.Category,
			Brand:       p.Brand,
			Image:       p.Image,
			Stock:       p.Stock,
			Unit:        p.Unit,
			Tags:        append([]string{}, p.Tags...),
			InStock:     p.Stock > 0,
		}
		if p.OriginalPrice > 0 {
			product.OriginalPrice = decimal.NewFromFloat(p.OriginalPrice)
		}
		s.products = append(s.products, product)
	}
	return s
}

var _ ICatalogService = (*CatalogService)(nil)

func (s *CatalogService) ListProducts(ctx context.Context, category, query string) []model.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	products := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if query != "" && !productMatches(p, query) {
			continue
		}
		products = append(products, copyProduct(p))
	}
	return products
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*model.Product, bool) {
	for _, p := range s.products {
		if p.ID == productID {
			product := copyProduct(p)
			return &product, true
		}
	}
	return nil, false
}

func (s *CatalogService) ListCategories(ctx context.Context) []model.Category {
	categories := make([]model.Category, len(s.categories))
	copy(categories, s.categories)
	return categories
}

func productMatches(p model.Product, query string) bool {
	if strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query) ||
		strings.Contains(strings.ToLower(p.Brand), query) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func copyProduct(p model.Product) model.Product {
	p.Tags = append([]string{}, p.Tags...)
	return p
}
