package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/grocery/internal/api/response"
	"github.com/RoyceAzure/lab/grocery/internal/service"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalog service.ICatalogService
}

func NewCatalogHandler(catalog service.ICatalogService) *CatalogHandler {
	if catalog == nil {
		panic("catalog service cannot be nil")
	}
	return &CatalogHandler{catalog: catalog}
}

// ListProducts ?category= 與 ?q= 可同時使用
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	response.SuccessJSON(w, h.catalog.ListProducts(r.Context(), q.Get("category"), q.Get("q")), nil)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if !ok {
		writeError(w, service.ErrProductNotFound)
		return
	}
	response.SuccessJSON(w, product, nil)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	response.SuccessJSON(w, h.catalog.ListCategories(r.Context()), nil)
}
