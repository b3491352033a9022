package model

import (
	"encoding/json"
	"strings"
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// NormalizeRole 舊資料的 "user" 與未知角色一律視為 customer
func NormalizeRole(s string) Role {
	if Role(strings.ToLower(strings.TrimSpace(s))) == RoleAdmin {
		return RoleAdmin
	}
	return RoleCustomer
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = NormalizeRole(s)
	return nil
}

type Address struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"pincode"`
	IsDefault  bool   `json:"isDefault"`
}

type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Role          Role      `json:"role"`
	LoyaltyPoints int       `json:"loyaltyPoints"`
	Addresses     []Address `json:"addresses"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Clone 深拷貝, addresses 不共用底層陣列
func (u User) Clone() User {
	c := u
	c.Addresses = make([]Address, len(u.Addresses))
	copy(c.Addresses, u.Addresses)
	return c
}

func (u *User) DefaultAddress() (Address, bool) {
	for _, a := range u.Addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return Address{}, false
}

func (u *User) AddressByID(id string) (Address, bool) {
	for _, a := range u.Addresses {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}

// EmailMatches email 比對不分大小寫
func (u *User) EmailMatches(email string) bool {
	return strings.EqualFold(strings.TrimSpace(u.Email), strings.TrimSpace(email))
}

// StoredUser users 清單中的紀錄, 多帶密碼雜湊
type StoredUser struct {
	User
	PasswordHash string `json:"passwordHash"`
}

func (s StoredUser) Clone() StoredUser {
	return StoredUser{User: s.User.Clone(), PasswordHash: s.PasswordHash}
}
