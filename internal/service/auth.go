package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid login or password")

const tokenTTL = 24 * time.Hour

// AuthService checks the single operator account configured for the
// process and issues signed tokens for it.
type AuthService struct {
	login        string
	passwordHash []byte
	secret       []byte
	now          func() time.Time
}

func NewAuthService(login, passwordHash, secret string) *AuthService {
	return &AuthService{
		login:        login,
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		now:          time.Now,
	}
}

func (s *AuthService) Authenticate(ctx context.Context, login, password string) error {
	if subtle.ConstantTimeCompare([]byte(login), []byte(s.login)) != 1 {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// IssueToken returns an HS256 token for the operator.
func (s *AuthService) IssueToken(login string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": login,
		"exp": jwt.NewNumericDate(s.now().Add(tokenTTL)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
