package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPacked         OrderStatus = "packed"
	OrderStatusOutForDelivery OrderStatus = "out-for-delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// 正向流程的順序, cancelled 不在其中
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:        0,
	OrderStatusConfirmed:      1,
	OrderStatusPacked:         2,
	OrderStatusOutForDelivery: 3,
	OrderStatusDelivered:      4,
}

var orderStatusDescription = map[OrderStatus]string{
	OrderStatusPending:        "Order placed, awaiting confirmation",
	OrderStatusConfirmed:      "Order confirmed and payment received",
	OrderStatusPacked:         "Order packed and ready for dispatch",
	OrderStatusOutForDelivery: "Order is out for delivery",
	OrderStatusDelivered:      "Order delivered successfully",
	OrderStatusCancelled:      "Order has been cancelled",
}

func (s OrderStatus) IsValid() bool {
	if s == OrderStatusCancelled {
		return true
	}
	_, ok := orderStatusRank[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Description tracking step 的固定說明
func (s OrderStatus) Description() string {
	if d, ok := orderStatusDescription[s]; ok {
		return d
	}
	return "Order status updated to " + string(s)
}

// CanTransitionTo 嚴格模式下的狀態轉換規則
// 只能往前推進(可跳階), 非終態可以取消, 終態不能再變動
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	if !s.IsValid() || !to.IsValid() || s.IsTerminal() {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	return orderStatusRank[to] > orderStatusRank[s]
}

type PaymentMethod string

const (
	PaymentMethodCOD        PaymentMethod = "cod"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodNetBanking PaymentMethod = "net_banking"
	PaymentMethodWallet     PaymentMethod = "wallet"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodCard, PaymentMethodUPI, PaymentMethodNetBanking, PaymentMethodWallet:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type DeliveryType string

const (
	DeliveryTypeHome   DeliveryType = "home"
	DeliveryTypePickup DeliveryType = "pickup"
)

func (d DeliveryType) IsValid() bool {
	return d == DeliveryTypeHome || d == DeliveryTypePickup
}

// PickupAddress 到店取貨使用的門市地址
func PickupAddress() Address {
	return Address{
		ID:         "pickup",
		Name:       "Store Pickup",
		Street:     "123 Fresh Mart Store, Market Street",
		City:       "Downtown",
		State:      "State",
		PostalCode: "12345",
	}
}

// OrderItem 下單當下的商品快照, 不隨目錄變動
type OrderItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

type TrackingStep struct {
	Status      OrderStatus `json:"status"`
	Timestamp   time.Time   `json:"timestamp"`
	Description string      `json:"description"`
	Completed   bool        `json:"completed"`
}

// 訂單建立後 Items 與 DeliveryAddress 不會變動
// 只有 status, payment status, tracking steps 與對應時間會更新
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	OrderNumber     string          `json:"orderNumber"`
	Items           []OrderItem     `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	FinalTotal      decimal.Decimal `json:"finalTotal"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	DeliveryType    DeliveryType    `json:"deliveryType"`
	DeliveryAddress Address         `json:"deliveryAddress"`
	PointsEarned    int             `json:"pointsEarned"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty"`
	TrackingSteps   []TrackingStep  `json:"trackingSteps"`
}

func (o *Order) HasTrackingStep(status OrderStatus) bool {
	for _, step := range o.TrackingSteps {
		if step.Status == status {
			return true
		}
	}
	return false
}

func (o Order) Clone() Order {
	c := o
	c.Items = make([]OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	c.TrackingSteps = make([]TrackingStep, len(o.TrackingSteps))
	copy(c.TrackingSteps, o.TrackingSteps)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		c.DeliveredAt = &t
	}
	if o.CancelledAt != nil {
		t := *o.CancelledAt
		c.CancelledAt = &t
	}
	return c
}

type OrderStats struct {
	TotalOrders     int             `json:"totalOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	PendingOrders   int             `json:"pendingOrders"`
	DeliveredOrders int             `json:"deliveredOrders"`
}
