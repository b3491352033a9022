package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const plainHashPrefix = "plain:"

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare 不相符時回傳 ErrInvalidCredentials
	Compare(hash, password string) error
}

// NewPasswordHasher kind 為 plain 時使用明文比對(僅限模擬環境), 其餘為 bcrypt
func NewPasswordHasher(kind string) PasswordHasher {
	if strings.EqualFold(kind, "plain") {
		return PlainHasher{}
	}
	return BcryptHasher{Cost: bcrypt.DefaultCost}
}

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (h BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrHashTooShort) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}

type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return plainHashPrefix + password, nil
}

func (PlainHasher) Compare(hash, password string) error {
	if subtle.ConstantTimeCompare([]byte(hash), []byte(plainHashPrefix+password)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
