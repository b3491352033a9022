package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/grocery/internal/api/dto"
	"github.com/RoyceAzure/lab/grocery/internal/api/response"
	"github.com/RoyceAzure/lab/grocery/internal/service"
)

type CheckoutHandler struct {
	checkout service.ICheckoutService
}

func NewCheckoutHandler(checkout service.ICheckoutService) *CheckoutHandler {
	if checkout == nil {
		panic("checkout service cannot be nil")
	}
	return &CheckoutHandler{checkout: checkout}
}

// @Summary place an order from the current cart
// @Tags checkout
// @Param checkout body dto.CheckoutRequest true "payment and delivery"
// @Success 201 {object} response.Response{data=model.Order}
// @Failure 400 {object} response.ResponseError{data=map[string]string}
// @Router /checkout [post]
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	arg := service.CheckoutParams{
		PaymentMethod: req.PaymentMethod,
		DeliveryType:  req.DeliveryType,
		AddressID:     req.AddressID,
		UPIID:         req.UpiID,
	}
	if req.Address != nil {
		address := toAddressParams(*req.Address)
		arg.Address = &address
	}
	if req.Card != nil {
		arg.CardNumber = req.Card.Number
		arg.CardExpiry = req.Card.Expiry
		arg.CardCVV = req.Card.CVV
		arg.CardHolder = req.Card.Holder
	}

	order, err := h.checkout.Checkout(r.Context(), arg)
	if err != nil {
		writeError(w, err)
		return
	}
	response.CreatedJSON(w, order)
}
