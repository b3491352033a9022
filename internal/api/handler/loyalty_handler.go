package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/grocery/internal/api/dto"
	"github.com/RoyceAzure/lab/grocery/internal/api/response"
	"github.com/RoyceAzure/lab/grocery/internal/service"
)

type LoyaltyHandler struct {
	identity service.IIdentityService
}

func NewLoyaltyHandler(identity service.IIdentityService) *LoyaltyHandler {
	if identity == nil {
		panic("identity service cannot be nil")
	}
	return &LoyaltyHandler{identity: identity}
}

// Summary 目前積分, 等級與可兌換獎勵
func (h *LoyaltyHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.identity.LoyaltySummary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, summary, nil)
}

func (h *LoyaltyHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req dto.RedeemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reward, user, err := h.identity.RedeemReward(r.Context(), req.Points)
	if err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, dto.RedeemResponse{Reward: *reward, User: *user}, nil)
}
