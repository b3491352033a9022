package model

import "github.com/shopspring/decimal"

type Category struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Image       string `json:"image" yaml:"image"`
}

// Product Price 為售價, OriginalPrice 為原價
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	Image         string          `json:"image"`
	Stock         int             `json:"stock"`
	Unit          string          `json:"unit"`
	Tags          []string        `json:"tags"`
	InStock       bool            `json:"inStock"`
}

// UnitOriginalPrice 原價缺少時以售價計
func (p *Product) UnitOriginalPrice() decimal.Decimal {
	if p.OriginalPrice.IsZero() {
		return p.Price
	}
	return p.OriginalPrice
}
