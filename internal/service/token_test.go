package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/dispute-backend/internal/models"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute)
	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	token, exp, err := tm.GenerateAccess(user)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	id, role, err := tm.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Minute)
	verifier := NewTokenManager("secret-b", time.Minute)

	token, _, err := issuer.GenerateAccess(&models.User{ID: uuid.New(), Role: models.RoleUser})
	require.NoError(t, err)

	_, _, err = verifier.ParseAccess(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)
	token, _, err := tm.GenerateAccess(&models.User{ID: uuid.New(), Role: models.RoleUser})
	require.NoError(t, err)

	_, _, err = tm.ParseAccess(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_RejectsMissingSubject(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, _, err = tm.ParseAccess(raw)
	assert.Error(t, err)
}
