package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWT("user-1", "uni-1", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "uni-1", claims.UniversityID)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("user-1", "", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateJWT_Expired(t *testing.T) {
	token, err := GenerateJWT("user-1", "", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateJWT_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateJWT(signed, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateJWT_Garbage(t *testing.T) {
	_, err := ValidateJWT("not-a-token", testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUnverifiedClaims(t *testing.T) {
	token, err := GenerateJWT("user-7", "uni-3", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := UnverifiedClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", claims.UserID)
	assert.Equal(t, "uni-3", claims.UniversityID)

	_, err = UnverifiedClaims("nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
