package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret-32-characters-long!!", 30*time.Minute)

	actor := Actor{ID: uuid.New(), Name: "Alice Tan", Role: models.RoleCustomer}
	token, err := tm.GenerateSessionToken(actor)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor.ID, got.ID)
	assert.Equal(t, "Alice Tan", got.Name)
	assert.Equal(t, models.RoleCustomer, got.Role)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret-32-characters-long!!", 30*time.Minute)
	other := NewTokenManager("another-secret-32-characters-ok!", 30*time.Minute)

	token, err := tm.GenerateSessionToken(Actor{ID: uuid.New(), Name: "Bob", Role: models.RoleManager})
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("test-secret-32-characters-long!!", -time.Minute)

	token, err := tm.GenerateSessionToken(Actor{ID: uuid.New(), Name: "Bob", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret-32-characters-long!!", 30*time.Minute)

	_, err := tm.ValidateToken("not.a.token")
	assert.Error(t, err)
}
