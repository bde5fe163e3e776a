package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndParse(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour)
	user := &User{ID: uuid.New(), Role: RoleCustomer}

	token, err := ts.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := ts.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestTokenService_Parse_WrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, err := issuer.Issue(&User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Parse_Expired(t *testing.T) {
	ts := NewTokenService("test-secret", -time.Minute)

	token, err := ts.Issue(&User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = ts.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_ParseHeader(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour)
	user := &User{ID: uuid.New()}

	token, err := ts.Issue(user)
	require.NoError(t, err)

	userID, err := ts.ParseHeader("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	_, err = ts.ParseHeader("")
	assert.ErrorIs(t, err, ErrMissingBearer)

	_, err = ts.ParseHeader(token)
	assert.ErrorIs(t, err, ErrMissingBearer)

	_, err = ts.ParseHeader("Basic dXNlcjpwYXNz")
	assert.ErrorIs(t, err, ErrMissingBearer)
}

func TestUser_Multiplier(t *testing.T) {
	assert.Equal(t, 1.1, (&User{PriceMultiplier: 1.1}).Multiplier())
	assert.Equal(t, 1.0, (&User{}).Multiplier())
	assert.Equal(t, 1.0, (&User{PriceMultiplier: -0.5}).Multiplier())
}
