package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "grocery"

var ErrInvalidSecret = errors.New("token secret must not be empty")

type TokenClaims struct {
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// User 由 claims 還原的精簡使用者, 沒有地址與積分
func (c *TokenClaims) User() model.User {
	return model.User{
		ID:    c.Subject,
		Name:  c.Name,
		Email: c.Email,
		Role:  c.Role,
	}
}

type ITokenMaker interface {
	// CreateToken 產生不過期的 session token
	CreateToken(user model.User) (string, error)
	// VerifyToken 錯誤:
	//   - ErrInvalidToken: 簽章錯誤或格式錯誤
	VerifyToken(token string) (*TokenClaims, error)
}

// JWTMaker HS256, 沒有 exp, 用戶端應視為不透明字串
type JWTMaker struct {
	secret []byte
	now    func() time.Time
}

func NewJWTMaker(secret string) (*JWTMaker, error) {
	if secret == "" {
		return nil, ErrInvalidSecret
	}
	return &JWTMaker{
		secret: []byte(secret),
		now:    time.Now,
	}, nil
}

var _ ITokenMaker = (*JWTMaker)(nil)

func (m *JWTMaker) CreateToken(user model.User) (string, error) {
	claims := TokenClaims{
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.New().String(),
			Subject:  user.ID,
			Issuer:   tokenIssuer,
			IssuedAt: jwt.NewNumericDate(m.now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (m *JWTMaker) VerifyToken(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
