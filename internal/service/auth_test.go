package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestOperatorAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := NewAuthService("operator", string(hash), "signing-key")

	require.NoError(t, svc.Authenticate(context.Background(), "operator", "s3cret"))
	require.ErrorIs(t, svc.Authenticate(context.Background(), "operator", "wrong"), ErrInvalidCredentials)
	require.ErrorIs(t, svc.Authenticate(context.Background(), "someone", "s3cret"), ErrInvalidCredentials)

	signed, err := svc.IssueToken("operator")
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(*jwt.Token) (interface{}, error) { return []byte("signing-key"), nil })
	require.NoError(t, err)
	sub, err := token.Claims.GetSubject()
	require.NoError(t, err)
	require.Equal(t, "operator", sub)
}
