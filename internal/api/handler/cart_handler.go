package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/grocery/internal/api/dto"
	"github.com/RoyceAzure/lab/grocery/internal/api/response"
	"github.com/RoyceAzure/lab/grocery/internal/service"
	"github.com/go-chi/chi/v5"
)

// CartHandler 購物車不需要登入, 商品資料一律由目錄查詢
type CartHandler struct {
	cart    service.ICartService
	catalog service.ICatalogService
}

func NewCartHandler(cart service.ICartService, catalog service.ICatalogService) *CartHandler {
	if cart == nil || catalog == nil {
		panic("cart and catalog service cannot be nil")
	}
	return &CartHandler{cart: cart, catalog: catalog}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	response.SuccessJSON(w, h.cart.GetCart(r.Context()), nil)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req dto.AddCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	product, ok := h.catalog.GetProduct(ctx, req.ProductID)
	if !ok {
		writeError(w, service.ErrProductNotFound)
		return
	}

	cart, err := h.cart.AddItem(ctx, *product, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, cart, nil)
}

// UpdateItem quantity <= 0 等同移除
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.cart.UpdateQuantity(r.Context(), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, cart, nil)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.RemoveItem(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, cart, nil)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.cart.ClearCart(ctx); err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, h.cart.GetCart(ctx), nil)
}
