package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	token, err := GenerateJWT(userID, "vendor1", "vendor", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "vendor", claims.UserType)
}

func TestJWTRejectsExpiredAndForeignTokens(t *testing.T) {
	SetJWTSecret("test-secret")
	expired, err := GenerateJWT(uuid.New(), "vendor1", "vendor", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT(expired)
	assert.Error(t, err)

	SetJWTSecret("other-secret")
	foreign, err := GenerateJWT(uuid.New(), "vendor1", "vendor", time.Hour)
	require.NoError(t, err)

	SetJWTSecret("test-secret")
	_, err = ValidateJWT(foreign)
	assert.Error(t, err)
}
