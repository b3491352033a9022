package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/RoyceAzure/lab/grocery/internal/api/dto"
	"github.com/RoyceAzure/lab/grocery/internal/api/response"
	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	"github.com/RoyceAzure/lab/grocery/internal/export"
	"github.com/RoyceAzure/lab/grocery/internal/service"
	"github.com/go-chi/chi/v5"
)

// AdminHandler 路由需先經過 AdminMiddleware
type AdminHandler struct {
	orders   service.IOrderService
	identity service.IIdentityService
}

func NewAdminHandler(orders service.IOrderService, identity service.IIdentityService) *AdminHandler {
	if orders == nil || identity == nil {
		panic("order and identity service cannot be nil")
	}
	return &AdminHandler{
		orders:   orders,
		identity: identity,
	}
}

// ListOrders ?status= 只回傳該狀態的訂單
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.filteredOrders(r)
	if err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, orders, nil)
}

// ExportOrders 與 ListOrders 相同條件, 輸出 xlsx
func (h *AdminHandler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.filteredOrders(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteOrders(&buf, orders); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="orders.xlsx"`)
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	orderID := chi.URLParam(r, "orderID")
	updated, err := h.orders.UpdateOrderStatus(ctx, orderID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeStatusUpdate(w, r, orderID, updated)
}

func (h *AdminHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePaymentStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	orderID := chi.URLParam(r, "orderID")
	updated, err := h.orders.UpdatePaymentStatus(ctx, orderID, req.PaymentStatus)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeStatusUpdate(w, r, orderID, updated)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	response.SuccessJSON(w, h.orders.GetOrderStats(r.Context()), nil)
}

func (h *AdminHandler) Customers(w http.ResponseWriter, r *http.Request) {
	response.SuccessJSON(w, h.identity.ListCustomers(r.Context()), nil)
}

func (h *AdminHandler) filteredOrders(r *http.Request) ([]model.Order, error) {
	ctx := r.Context()
	orders := h.orders.GetAllOrders(ctx)
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return orders, nil
	}

	status := model.OrderStatus(raw)
	if !status.IsValid() {
		return nil, service.ErrUnknownOrderStatus
	}
	filtered := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

// writeStatusUpdate 訂單不存在時回 404, updated=false
func (h *AdminHandler) writeStatusUpdate(w http.ResponseWriter, r *http.Request, orderID string, updated bool) {
	if !updated {
		response.ErrorJSONWithData(w, http.StatusNotFound, ErrOrderNotFound, "not found", dto.StatusUpdateResponse{Updated: false})
		return
	}
	order, _ := h.orders.GetOrderByID(r.Context(), orderID)
	response.SuccessJSON(w, dto.StatusUpdateResponse{Updated: true, Order: order}, nil)
}
