package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/grocery/internal/api/dto"
	"github.com/RoyceAzure/lab/grocery/internal/api/response"
	"github.com/RoyceAzure/lab/grocery/internal/service"
	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	identity service.IIdentityService
}

func NewAuthHandler(identity service.IIdentityService) *AuthHandler {
	if identity == nil {
		panic("identity service cannot be nil")
	}
	return &AuthHandler{
		identity: identity,
	}
}

// @Summary email and password login
// @Tags auth
// @Param login body dto.LoginRequest true "email and password"
// @Success 200 {object} response.Response{data=dto.LoginResponse}
// @Failure 401 {object} response.ResponseError
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessJSON(w, dto.LoginResponse{Token: token, User: *user}, nil)
}

// @Summary register a customer account and start a session
// @Tags auth
// @Param register body dto.RegisterRequest true "account info"
// @Success 201 {object} response.Response{data=dto.LoginResponse}
// @Failure 400 {object} response.ResponseError{data=map[string]string}
// @Failure 409 {object} response.ResponseError
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.identity.Register(r.Context(), service.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	response.CreatedJSON(w, dto.LoginResponse{Token: token, User: *user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, nil, nil)
}

// Me 回傳最新的使用者資料 (含地址與積分)
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity.GetCurrentUser(r.Context())
	if !ok {
		writeError(w, service.ErrNotAuthenticated)
		return
	}
	response.SuccessJSON(w, user, nil)
}

func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.identity.UpdateProfile(r.Context(), service.UpdateProfileParams{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, user, nil)
}

func (h *AuthHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var req dto.AddressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.identity.AddAddress(r.Context(), toAddressParams(req))
	if err != nil {
		writeError(w, err)
		return
	}
	response.CreatedJSON(w, user)
}

func (h *AuthHandler) RemoveAddress(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.RemoveAddress(r.Context(), chi.URLParam(r, "addressID"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, user, nil)
}

func (h *AuthHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.SetDefaultAddress(r.Context(), chi.URLParam(r, "addressID"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, user, nil)
}

func toAddressParams(req dto.AddressRequest) service.AddressParams {
	return service.AddressParams{
		Name:       req.Name,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.Pincode,
		IsDefault:  req.IsDefault,
	}
}
