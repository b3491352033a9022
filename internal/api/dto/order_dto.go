package dto

import (
	"time"

	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
)

type AddCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type CardRequest struct {
	Number string `json:"cardNumber"`
	Expiry string `json:"expiryDate"`
	CVV    string `json:"cvv"`
	Holder string `json:"cardholderName"`
}

type CheckoutRequest struct {
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	DeliveryType  model.DeliveryType  `json:"deliveryType"`
	AddressID     string              `json:"addressId"`
	Address       *AddressRequest     `json:"address"`
	Card          *CardRequest        `json:"card"`
	UpiID         string              `json:"upiId"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
}

// StatusUpdateResponse updated 為 false 代表訂單不存在
type StatusUpdateResponse struct {
	Updated bool         `json:"updated"`
	Order   *model.Order `json:"order,omitempty"`
}

// TrackingResponse 追蹤頁使用, 附上每個狀態的說明
type TrackingResponse struct {
	OrderNumber   string               `json:"orderNumber"`
	Status        model.OrderStatus    `json:"status"`
	Description   string               `json:"description"`
	TrackingSteps []model.TrackingStep `json:"trackingSteps"`
	DeliveredAt   *time.Time           `json:"deliveredAt,omitempty"`
}
