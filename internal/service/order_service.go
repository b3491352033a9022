package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/grocery/internal/constants"
	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	evt "github.com/RoyceAzure/lab/grocery/internal/domain/model/event"
	"github.com/RoyceAzure/lab/grocery/internal/infra/repository/kv_repo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type IOrderService interface {
	// CreateOrder 以目前登入的使用者建立訂單, 非 admin 會累積積分
	//
	// 錯誤:
	//   - ErrNotAuthenticated: 沒有登入
	//   - ErrEmptyOrder: 沒有商品
	//   - *ValidationError: 金額為負或欄位錯誤
	//   - ErrOrderNumberExhausted: 訂單編號重複次數過多
	CreateOrder(ctx context.Context, arg CreateOrderParams) (*model.Order, error)
	// UpdateOrderStatus 訂單不存在回傳 false, nil
	// 狀態相同時回傳 true 且不新增 tracking step
	//
	// 錯誤:
	//   - ErrUnknownOrderStatus: status 不合法
	//   - ErrInvalidStatusTransition: 嚴格模式下不允許的轉換
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (bool, error)
	// UpdatePaymentStatus 訂單不存在回傳 false, nil
	//
	// 錯誤:
	//   - ErrUnknownPaymentStatus: paymentStatus 不合法
	UpdatePaymentStatus(ctx context.Context, orderID string, paymentStatus model.PaymentStatus) (bool, error)
	GetUserOrders(ctx context.Context, userID string) []model.Order
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, bool)
	GetOrderByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, bool)
	GetAllOrders(ctx context.Context) []model.Order
	GetOrderStats(ctx context.Context) model.OrderStats
}

type CreateOrderParams struct {
	Items           []model.OrderItem
	Subtotal        decimal.Decimal
	DeliveryFee     decimal.Decimal
	Discount        decimal.Decimal
	Total           decimal.Decimal
	FinalTotal      decimal.Decimal
	PaymentMethod   model.PaymentMethod
	PaymentStatus   model.PaymentStatus
	DeliveryType    model.DeliveryType
	DeliveryAddress model.Address
}

// OrderService 所有使用者的訂單, 新的在前
// 會呼叫 identity 累積積分, identity 不會反向呼叫
type OrderService struct {
	mu          sync.RWMutex
	repo        kv_repo.IOrderRepository
	identity    IIdentityService
	publisher   EventPublisher
	logger      zerolog.Logger
	latency     time.Duration
	strict      bool
	now         func() time.Time
	newID       func() string
	orderNumber func(now time.Time) string

	orders []model.Order
}

type OrderOption func(*OrderService)

func WithOrderLatency(d time.Duration) OrderOption {
	return func(s *OrderService) {
		s.latency = d
	}
}

func WithOrderLogger(logger zerolog.Logger) OrderOption {
	return func(s *OrderService) {
		s.logger = logger
	}
}

func WithOrderPublisher(p EventPublisher) OrderOption {
	return func(s *OrderService) {
		s.publisher = p
	}
}

func WithOrderClock(now func() time.Time) OrderOption {
	return func(s *OrderService) {
		s.now = now
	}
}

func WithOrderIDGenerator(newID func() string) OrderOption {
	return func(s *OrderService) {
		s.newID = newID
	}
}

func WithOrderNumberGenerator(gen func(now time.Time) string) OrderOption {
	return func(s *OrderService) {
		s.orderNumber = gen
	}
}

// WithStrictTransitions false 時任何合法狀態之間都能互相轉換
func WithStrictTransitions(strict bool) OrderOption {
	return func(s *OrderService) {
		s.strict = strict
	}
}

func NewOrderService(ctx context.Context, repo kv_repo.IOrderRepository, identity IIdentityService, opts ...OrderOption) *OrderService {
	if repo == nil || identity == nil {
		panic("order service dependencies cannot be nil")
	}
	s := &OrderService{
		repo:        repo,
		identity:    identity,
		logger:      zerolog.Nop(),
		latency:     constants.DefaultOrderLatency,
		strict:      true,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
		orderNumber: RandomOrderNumber,
	}
	for _, opt := range opts {
		opt(s)
	}

	orders, err := repo.LoadOrders(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("load orders failed, start with empty ledger")
	}
	s.orders = orders
	return s
}

var _ IOrderService = (*OrderService)(nil)

// RandomOrderNumber ORD-<year>-<1000..9999>
func RandomOrderNumber(now time.Time) string {
	return fmt.Sprintf("%s-%d-%d", constants.OrderNumberPrefix, now.Year(), 1000+rand.IntN(9000))
}

func (s *OrderService) CreateOrder(ctx context.Context, arg CreateOrderParams) (*model.Order, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}

	user, ok := s.identity.GetCurrentUser(ctx)
	if !ok || !s.identity.IsAuthenticated(ctx) {
		return nil, ErrNotAuthenticated
	}
	if len(arg.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if err := validateCreateOrder(&arg); err != nil {
		return nil, err
	}

	order, events, err := s.createOrder(ctx, user, arg)
	if err != nil {
		return nil, err
	}
	publishEvents(ctx, s.publisher, s.logger, events...)
	return order, nil
}

// createOrder 寫入訂單與積分, 回傳待發布的事件
func (s *OrderService) createOrder(ctx context.Context, user *model.User, arg CreateOrderParams) (*model.Order, []evt.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	orderNumber, err := s.nextOrderNumber(now)
	if err != nil {
		return nil, nil, err
	}

	items := make([]model.OrderItem, len(arg.Items))
	copy(items, arg.Items)

	order := model.Order{
		ID:              s.newID(),
		UserID:          user.ID,
		OrderNumber:     orderNumber,
		Items:           items,
		Subtotal:        arg.Subtotal,
		DeliveryFee:     arg.DeliveryFee,
		Discount:        arg.Discount,
		Total:           arg.Total,
		FinalTotal:      arg.FinalTotal,
		Status:          model.OrderStatusPending,
		PaymentMethod:   arg.PaymentMethod,
		PaymentStatus:   arg.PaymentStatus,
		DeliveryType:    arg.DeliveryType,
		DeliveryAddress: arg.DeliveryAddress,
		PointsEarned:    model.PointsForTotal(arg.FinalTotal),
		CreatedAt:       now,
		UpdatedAt:       now,
		TrackingSteps: []model.TrackingStep{
			{
				Status:      model.OrderStatusConfirmed,
				Timestamp:   now,
				Description: model.OrderStatusConfirmed.Description(),
				Completed:   true,
			},
		},
	}

	orders := make([]model.Order, 0, len(s.orders)+1)
	orders = append(orders, order)
	orders = append(orders, s.orders...)
	if err := s.repo.SaveOrders(ctx, orders); err != nil {
		s.logger.Error().Err(err).Str("order_number", orderNumber).Msg("save orders failed")
		return nil, nil, err
	}
	s.orders = orders

	events := []evt.Event{
		&evt.OrderCreatedEvent{
			BaseEvent:     evt.NewBaseEvent(order.ID, evt.OrderCreatedEventName, now),
			UserID:        order.UserID,
			OrderNumber:   order.OrderNumber,
			Items:         order.Items,
			FinalTotal:    order.FinalTotal,
			PaymentMethod: order.PaymentMethod,
			PointsEarned:  order.PointsEarned,
			ToStatus:      order.Status,
		},
	}

	if !user.IsAdmin() && order.PointsEarned > 0 {
		balance, err := s.identity.CreditLoyaltyPoints(ctx, user.ID, order.PointsEarned)
		if err != nil {
			// 訂單已寫入, 積分失敗不回滾
			s.logger.Warn().Err(err).Str("order_id", order.ID).Int("points", order.PointsEarned).Msg("credit loyalty points failed")
		} else {
			events = append(events, &evt.LoyaltyPointsCreditedEvent{
				BaseEvent:  evt.NewBaseEvent(user.ID, evt.LoyaltyPointsCreditedEventName, now),
				OrderID:    order.ID,
				Points:     order.PointsEarned,
				NewBalance: balance,
			})
		}
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Str("user_id", order.UserID).
		Str("final_total", order.FinalTotal.StringFixed(2)).
		Msg("order created")

	out := order.Clone()
	return &out, events, nil
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (bool, error) {
	if !status.IsValid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownOrderStatus, status)
	}

	ok, e, err := s.updateOrderStatus(ctx, orderID, status)
	if err != nil {
		return false, err
	}
	if e != nil {
		publishEvents(ctx, s.publisher, s.logger, e)
	}
	return ok, nil
}

func (s *OrderService) updateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (bool, evt.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByID(orderID)
	if idx < 0 {
		return false, nil, nil
	}
	current := s.orders[idx]
	if current.Status == status {
		return true, nil, nil
	}
	if s.strict && !current.Status.CanTransitionTo(status) {
		return false, nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, status)
	}

	now := s.now()
	updated := current.Clone()
	updated.Status = status
	updated.UpdatedAt = now

	var step *model.TrackingStep
	if !updated.HasTrackingStep(status) {
		updated.TrackingSteps = append(updated.TrackingSteps, model.TrackingStep{
			Status:      status,
			Timestamp:   now,
			Description: status.Description(),
			Completed:   true,
		})
		step = &updated.TrackingSteps[len(updated.TrackingSteps)-1]
	}
	switch status {
	case model.OrderStatusDelivered:
		updated.DeliveredAt = &now
	case model.OrderStatusCancelled:
		updated.CancelledAt = &now
	}

	if err := s.replace(ctx, idx, updated); err != nil {
		return false, nil, err
	}

	s.logger.Info().
		Str("order_id", orderID).
		Str("from", string(current.Status)).
		Str("to", string(status)).
		Msg("order status updated")

	e := &evt.OrderStatusChangedEvent{
		BaseEvent:   evt.NewBaseEvent(orderID, evt.OrderStatusChangedEventName, now),
		OrderNumber: updated.OrderNumber,
		FromStatus:  current.Status,
		ToStatus:    status,
	}
	if step != nil {
		stepCopy := *step
		e.TrackingStep = &stepCopy
	}
	return true, e, nil
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID string, paymentStatus model.PaymentStatus) (bool, error) {
	if !paymentStatus.IsValid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownPaymentStatus, paymentStatus)
	}

	ok, e, err := s.updatePaymentStatus(ctx, orderID, paymentStatus)
	if err != nil {
		return false, err
	}
	if e != nil {
		publishEvents(ctx, s.publisher, s.logger, e)
	}
	return ok, nil
}

func (s *OrderService) updatePaymentStatus(ctx context.Context, orderID string, paymentStatus model.PaymentStatus) (bool, evt.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByID(orderID)
	if idx < 0 {
		return false, nil, nil
	}
	current := s.orders[idx]
	if current.PaymentStatus == paymentStatus {
		return true, nil, nil
	}

	now := s.now()
	updated := current.Clone()
	updated.PaymentStatus = paymentStatus
	updated.UpdatedAt = now
	if err := s.replace(ctx, idx, updated); err != nil {
		return false, nil, err
	}

	s.logger.Info().
		Str("order_id", orderID).
		Str("from", string(current.PaymentStatus)).
		Str("to", string(paymentStatus)).
		Msg("payment status updated")
	return true, &evt.OrderPaymentUpdatedEvent{
		BaseEvent:   evt.NewBaseEvent(orderID, evt.OrderPaymentUpdatedEventName, now),
		OrderNumber: updated.OrderNumber,
		From:        current.PaymentStatus,
		To:          paymentStatus,
	}, nil
}

func (s *OrderService) GetUserOrders(ctx context.Context, userID string) []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]model.Order, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			orders = append(orders, o.Clone())
		}
	}
	return orders
}

func (s *OrderService) GetOrderByID(ctx context.Context, orderID string) (*model.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexByID(orderID)
	if idx < 0 {
		return nil, false
	}
	order := s.orders[idx].Clone()
	return &order, true
}

func (s *OrderService) GetOrderByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.OrderNumber == orderNumber {
			order := o.Clone()
			return &order, true
		}
	}
	return nil, false
}

func (s *OrderService) GetAllOrders(ctx context.Context) []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]model.Order, len(s.orders))
	for i, o := range s.orders {
		orders[i] = o.Clone()
	}
	return orders
}

func (s *OrderService) GetOrderStats(ctx context.Context) model.OrderStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.OrderStats{
		TotalOrders:  len(s.orders),
		TotalRevenue: decimal.Zero,
	}
	for _, o := range s.orders {
		stats.TotalRevenue = stats.TotalRevenue.Add(o.FinalTotal)
		switch o.Status {
		case model.OrderStatusDelivered:
			stats.DeliveredOrders++
		case model.OrderStatusCancelled:
		default:
			stats.PendingOrders++
		}
	}
	return stats
}

// nextOrderNumber 與既有訂單重複時重新產生, 呼叫端需持有寫鎖
func (s *OrderService) nextOrderNumber(now time.Time) (string, error) {
	for i := 0; i < constants.OrderNumberMaxAttempts; i++ {
		number := s.orderNumber(now)
		if !s.orderNumberTaken(number) {
			return number, nil
		}
	}
	return "", ErrOrderNumberExhausted
}

func (s *OrderService) orderNumberTaken(number string) bool {
	for _, o := range s.orders {
		if o.OrderNumber == number {
			return true
		}
	}
	return false
}

// replace 呼叫端需持有寫鎖
func (s *OrderService) replace(ctx context.Context, idx int, updated model.Order) error {
	orders := make([]model.Order, len(s.orders))
	copy(orders, s.orders)
	orders[idx] = updated
	if err := s.repo.SaveOrders(ctx, orders); err != nil {
		s.logger.Error().Err(err).Str("order_id", updated.ID).Msg("save orders failed")
		return err
	}
	s.orders = orders
	return nil
}

func (s *OrderService) indexByID(orderID string) int {
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			return i
		}
	}
	return -1
}

func validateCreateOrder(arg *CreateOrderParams) error {
	ve := NewValidationError()
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"subtotal", arg.Subtotal},
		{"deliveryFee", arg.DeliveryFee},
		{"discount", arg.Discount},
		{"total", arg.Total},
		{"finalTotal", arg.FinalTotal},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			ve.Add(a.field, a.field+" must not be negative")
		}
	}
	for _, item := range arg.Items {
		if item.Quantity <= 0 {
			ve.Add("items", "item quantity must be positive")
			break
		}
	}

	if arg.PaymentMethod == "" {
		arg.PaymentMethod = model.PaymentMethodCOD
	}
	if !arg.PaymentMethod.IsValid() {
		ve.Add("paymentMethod", "unsupported payment method")
	}
	if arg.PaymentStatus == "" {
		arg.PaymentStatus = model.PaymentStatusPending
	}
	if !arg.PaymentStatus.IsValid() {
		ve.Add("paymentStatus", "unsupported payment status")
	}
	if arg.DeliveryType == "" {
		arg.DeliveryType = model.DeliveryTypeHome
	}
	if !arg.DeliveryType.IsValid() {
		ve.Add("deliveryType", "unsupported delivery type")
	}
	return ve.OrNil()
}
