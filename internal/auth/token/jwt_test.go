package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("signing-key", "easyform")
	userID := uuid.New()
	sessionID := uuid.New()

	raw, err := svc.GenerateAccessToken(userID, sessionID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, sessionID.String(), claims.SessionID)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	raw, err := NewService("key-a", "easyform").GenerateAccessToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	_, err = NewService("key-b", "easyform").ValidateToken(raw)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.EqualError(t, err, "invalid token")
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewService("signing-key", "easyform")
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    uuid.NewString(),
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-25 * time.Hour)),
			Issuer:    "easyform",
		},
	})
	raw, err := expired.SignedString([]byte("signing-key"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(raw)
	require.Error(t, err)
	assert.EqualError(t, err, "token has expired")
}

func TestValidateRejectsUnsignedToken(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: uuid.NewString()})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewService("signing-key", "easyform").ValidateToken(raw)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
