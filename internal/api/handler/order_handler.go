package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/grocery/internal/api/dto"
	"github.com/RoyceAzure/lab/grocery/internal/api/middleware"
	"github.com/RoyceAzure/lab/grocery/internal/api/response"
	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	"github.com/RoyceAzure/lab/grocery/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// OrderWatcher 把連線升級成 websocket 並推送訂單更新
type OrderWatcher interface {
	Serve(w http.ResponseWriter, r *http.Request, orderID string, snapshot any) error
}

type OrderHandler struct {
	orders  service.IOrderService
	watcher OrderWatcher
	logger  zerolog.Logger
}

func NewOrderHandler(orders service.IOrderService, watcher OrderWatcher, logger zerolog.Logger) *OrderHandler {
	if orders == nil || watcher == nil {
		panic("order service and watcher cannot be nil")
	}
	return &OrderHandler{
		orders:  orders,
		watcher: watcher,
		logger:  logger,
	}
}

// ListMine 目前使用者的訂單, 新的在前
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetCurrentUser(ctx)
	if user == nil {
		writeError(w, service.ErrNotAuthenticated)
		return
	}
	response.SuccessJSON(w, h.orders.GetUserOrders(ctx, user.ID), nil)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.visibleOrder(r, func() (*model.Order, bool) {
		return h.orders.GetOrderByID(r.Context(), chi.URLParam(r, "orderID"))
	})
	if !ok {
		writeError(w, ErrOrderNotFound)
		return
	}
	response.SuccessJSON(w, order, nil)
}

// Track 以訂單編號查詢目前狀態與追蹤步驟
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	order, ok := h.visibleOrder(r, func() (*model.Order, bool) {
		return h.orders.GetOrderByOrderNumber(r.Context(), chi.URLParam(r, "orderNumber"))
	})
	if !ok {
		writeError(w, ErrOrderNotFound)
		return
	}
	response.SuccessJSON(w, dto.TrackingResponse{
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		Description:   order.Status.Description(),
		TrackingSteps: order.TrackingSteps,
		DeliveredAt:   order.DeliveredAt,
	}, nil)
}

// Watch 第一則訊息為訂單快照, 之後推送狀態與付款事件
func (h *OrderHandler) Watch(w http.ResponseWriter, r *http.Request) {
	order, ok := h.visibleOrder(r, func() (*model.Order, bool) {
		return h.orders.GetOrderByID(r.Context(), chi.URLParam(r, "orderID"))
	})
	if !ok {
		writeError(w, ErrOrderNotFound)
		return
	}

	// Serve 失敗時 upgrader 已經回應過
	if err := h.watcher.Serve(w, r, order.ID, order); err != nil {
		h.logger.Warn().Err(err).Str("order_id", order.ID).Msg("order watch ended")
	}
}

// visibleOrder 非本人且非管理員一律視為不存在
func (h *OrderHandler) visibleOrder(r *http.Request, find func() (*model.Order, bool)) (*model.Order, bool) {
	user := middleware.GetCurrentUser(r.Context())
	if user == nil {
		return nil, false
	}
	order, ok := find()
	if !ok {
		return nil, false
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return nil, false
	}
	return order, true
}
