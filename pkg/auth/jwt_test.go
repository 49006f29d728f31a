package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerify(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  userID.String(),
		"role": "doctor",
		"name": "Mara Okafor",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	claims, err := NewJWTVerifier(testSecret).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "doctor", claims.Role)
	assert.Equal(t, "Mara Okafor", claims.Name)
}

func TestVerifyWrongSecret(t *testing.T) {
	token := signToken(t, "other-secret", jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "patient",
	})

	_, err := NewJWTVerifier(testSecret).Verify(token)
	assert.Error(t, err)
}

func TestVerifyExpired(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "patient",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	_, err := NewJWTVerifier(testSecret).Verify(token)
	assert.Error(t, err)
}

func TestVerifyMissingClaims(t *testing.T) {
	missingRole := signToken(t, testSecret, jwt.MapClaims{
		"sub": uuid.NewString(),
	})
	_, err := NewJWTVerifier(testSecret).Verify(missingRole)
	assert.Error(t, err)

	badSubject := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "not-a-uuid",
		"role": "patient",
	})
	_, err = NewJWTVerifier(testSecret).Verify(badSubject)
	assert.Error(t, err)
}
