package service

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	ErrInvalidCredentials      = errors.New("invalid credentials, please check your email and password")
	ErrEmailAlreadyExists      = errors.New("email already registered")
	ErrNotAuthenticated        = errors.New("user not authenticated")
	ErrPermissionDenied        = errors.New("permission denied")
	ErrUserNotFound            = errors.New("user not found")
	ErrAddressNotFound         = errors.New("address not found")
	ErrInsufficientPoints      = errors.New("not enough loyalty points")
	ErrRewardNotFound          = errors.New("reward not found")
	ErrInvalidQuantity         = errors.New("quantity must be positive")
	ErrEmptyOrder              = errors.New("order has no items")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrOrderNumberExhausted    = errors.New("could not generate a unique order number")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrUnknownOrderStatus      = errors.New("unknown order status")
	ErrUnknownPaymentStatus    = errors.New("unknown payment status")
	ErrProductNotFound         = errors.New("product not found")
	ErrInvalidToken            = errors.New("invalid token")
)

// ValidationError 使用者輸入錯誤, Fields 為 欄位 -> 訊息
// 操作會中止且不變動任何狀態
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = msg
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil 沒有欄位錯誤時回傳 nil
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		msgs = append(msgs, field+": "+e.Fields[field])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
