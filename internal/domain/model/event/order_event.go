package model

import (
	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	"github.com/shopspring/decimal"
)

// 訂單事件以 order id 作為 aggregate id
type OrderCreatedEvent struct {
	BaseEvent
	UserID        string              `json:"userId"`
	OrderNumber   string              `json:"orderNumber"`
	Items         []model.OrderItem   `json:"items"`
	FinalTotal    decimal.Decimal     `json:"finalTotal"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	PointsEarned  int                 `json:"pointsEarned"`
	ToStatus      model.OrderStatus   `json:"toStatus"`
}

func (e *OrderCreatedEvent) Type() EventType {
	return OrderCreatedEventName
}

type OrderStatusChangedEvent struct {
	BaseEvent
	OrderNumber  string              `json:"orderNumber"`
	FromStatus   model.OrderStatus   `json:"fromStatus"`
	ToStatus     model.OrderStatus   `json:"toStatus"`
	TrackingStep *model.TrackingStep `json:"trackingStep,omitempty"`
}

func (e *OrderStatusChangedEvent) Type() EventType {
	return OrderStatusChangedEventName
}

type OrderPaymentUpdatedEvent struct {
	BaseEvent
	OrderNumber string              `json:"orderNumber"`
	From        model.PaymentStatus `json:"from"`
	To          model.PaymentStatus `json:"to"`
}

func (e *OrderPaymentUpdatedEvent) Type() EventType {
	return OrderPaymentUpdatedEventName
}
