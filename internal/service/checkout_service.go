package service

import (
	"context"
	"strings"

	"github.com/RoyceAzure/lab/grocery/internal/constants"
	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ICheckoutService interface {
	// Checkout 把購物車轉成訂單, 成功後只移除已下單的數量
	//
	// 錯誤:
	//   - ErrEmptyCart: 購物車沒有商品
	//   - ErrNotAuthenticated: 沒有登入
	//   - *ValidationError: 付款資訊或地址錯誤
	//   - 其他 CreateOrder 的錯誤
	Checkout(ctx context.Context, arg CheckoutParams) (*model.Order, error)
}

type CheckoutParams struct {
	PaymentMethod model.PaymentMethod
	DeliveryType  model.DeliveryType
	// AddressID 為空時使用 Address, 兩者皆空時用預設地址
	AddressID  string
	Address    *AddressParams
	CardNumber string
	CardExpiry string
	CardCVV    string
	CardHolder string
	UPIID      string
}

type CheckoutService struct {
	cart     ICartService
	orders   IOrderService
	identity IIdentityService
	logger   zerolog.Logger
}

func NewCheckoutService(cart ICartService, orders IOrderService, identity IIdentityService, logger zerolog.Logger) *CheckoutService {
	if cart == nil || orders == nil || identity == nil {
		panic("checkout service dependencies cannot be nil")
	}
	return &CheckoutService{
		cart:     cart,
		orders:   orders,
		identity: identity,
		logger:   logger,
	}
}

var _ ICheckoutService = (*CheckoutService)(nil)

// DeliveryFeeFor 到店取貨免運, 宅配滿額免運
func DeliveryFeeFor(deliveryType model.DeliveryType, netTotal decimal.Decimal) decimal.Decimal {
	if deliveryType == model.DeliveryTypePickup {
		return decimal.Zero
	}
	if netTotal.GreaterThanOrEqual(decimal.NewFromInt(constants.FreeDeliveryThreshold)) {
		return decimal.Zero
	}
	return decimal.NewFromInt(constants.DeliveryFee)
}

func (s *CheckoutService) Checkout(ctx context.Context, arg CheckoutParams) (*model.Order, error) {
	cart := s.cart.GetCart(ctx)
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	user, ok := s.identity.GetCurrentUser(ctx)
	if !ok || !s.identity.IsAuthenticated(ctx) {
		return nil, ErrNotAuthenticated
	}

	if arg.DeliveryType == "" {
		arg.DeliveryType = model.DeliveryTypeHome
	}
	ve := NewValidationError()
	validatePayment(arg, ve)
	if !arg.DeliveryType.IsValid() {
		ve.Add("deliveryType", "unsupported delivery type")
	}
	address := resolveAddress(user, arg, ve)
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	fee := DeliveryFeeFor(arg.DeliveryType, cart.FinalTotal)
	paymentStatus := model.PaymentStatusPaid
	if arg.PaymentMethod == model.PaymentMethodCOD {
		paymentStatus = model.PaymentStatusPending
	}

	items := make([]model.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, model.OrderItem{
			ID:        item.ID,
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			Image:     item.Product.Image,
		})
	}

	order, err := s.orders.CreateOrder(ctx, CreateOrderParams{
		Items:           items,
		Subtotal:        cart.Total,
		DeliveryFee:     fee,
		Discount:        cart.Discount,
		Total:           cart.FinalTotal,
		FinalTotal:      cart.FinalTotal.Add(fee),
		PaymentMethod:   arg.PaymentMethod,
		PaymentStatus:   paymentStatus,
		DeliveryType:    arg.DeliveryType,
		DeliveryAddress: address,
	})
	if err != nil {
		return nil, err
	}

	// 建單期間加入購物車的商品不能被清掉
	if _, err := s.cart.RemoveOrdered(ctx, cart.Items); err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("remove ordered items from cart failed")
	}
	return order, nil
}

func validatePayment(arg CheckoutParams, ve *ValidationError) {
	switch arg.PaymentMethod {
	case model.PaymentMethodCard:
		number := strings.ReplaceAll(arg.CardNumber, " ", "")
		if len(number) != 16 || !isDigits(number) {
			ve.Add("cardNumber", "card number must be 16 digits")
		}
		cvv := strings.TrimSpace(arg.CardCVV)
		if len(cvv) < 3 || len(cvv) > 4 || !isDigits(cvv) {
			ve.Add("cvv", "cvv must be 3 or 4 digits")
		}
		if strings.TrimSpace(arg.CardExpiry) == "" {
			ve.Add("expiryDate", "expiry date is required")
		}
		if strings.TrimSpace(arg.CardHolder) == "" {
			ve.Add("cardholderName", "cardholder name is required")
		}
	case model.PaymentMethodUPI:
		if strings.TrimSpace(arg.UPIID) == "" {
			ve.Add("upiId", "UPI id is required")
		}
	case model.PaymentMethodCOD, model.PaymentMethodNetBanking, model.PaymentMethodWallet:
	default:
		ve.Add("paymentMethod", "please select a payment method")
	}
}

func resolveAddress(user *model.User, arg CheckoutParams, ve *ValidationError) model.Address {
	if arg.DeliveryType == model.DeliveryTypePickup {
		return model.PickupAddress()
	}
	if arg.AddressID != "" {
		if addr, ok := user.AddressByID(arg.AddressID); ok {
			return addr
		}
		ve.Add("address", "address not found")
		return model.Address{}
	}
	if arg.Address != nil {
		if err := validateAddress(*arg.Address); err != nil {
			ve.Add("address", "please fill in all address fields")
			return model.Address{}
		}
		return model.Address{
			ID:         "checkout",
			Name:       strings.TrimSpace(arg.Address.Name),
			Street:     strings.TrimSpace(arg.Address.Street),
			City:       strings.TrimSpace(arg.Address.City),
			State:      strings.TrimSpace(arg.Address.State),
			PostalCode: strings.TrimSpace(arg.Address.PostalCode),
		}
	}
	if addr, ok := user.DefaultAddress(); ok {
		return addr
	}
	ve.Add("address", "please select a delivery address")
	return model.Address{}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
