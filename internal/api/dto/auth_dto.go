package dto

import "github.com/RoyceAzure/lab/grocery/internal/domain/model"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// LoginResponse 登入與註冊共用
type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// UpdateProfileRequest nil 欄位不更新
type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

type AddressRequest struct {
	Name      string `json:"name"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	IsDefault bool   `json:"isDefault"`
}

type RedeemRequest struct {
	Points int `json:"points"`
}

type RedeemResponse struct {
	Reward model.Reward `json:"reward"`
	User   model.User   `json:"user"`
}
