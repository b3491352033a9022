package model

import "github.com/shopspring/decimal"

type CartItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Cart 由 CartItem 推導, 不會被持久化
// Total(原價) - Discount = FinalTotal(售價)
type Cart struct {
	Items      []CartItem      `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Discount   decimal.Decimal `json:"discount"`
	FinalTotal decimal.Decimal `json:"finalTotal"`
	ItemCount  int             `json:"itemCount"`
}

// NewCart 一次走訪計算三個總額
func NewCart(items []CartItem) Cart {
	cart := Cart{
		Items:      make([]CartItem, len(items)),
		Total:      decimal.Zero,
		Discount:   decimal.Zero,
		FinalTotal: decimal.Zero,
	}
	copy(cart.Items, items)

	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		gross := item.Product.UnitOriginalPrice().Mul(qty)
		net := item.Product.Price.Mul(qty)

		cart.Total = cart.Total.Add(gross)
		cart.Discount = cart.Discount.Add(gross.Sub(net))
		cart.FinalTotal = cart.FinalTotal.Add(net)
		cart.ItemCount += item.Quantity
	}
	return cart
}
