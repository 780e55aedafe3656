package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	sub := Subject{UserID: "u-1", Role: "household", ZoneID: "z-1", HouseholdID: "h-1"}

	token, err := GenerateAccessToken(sub, "secret", 5)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "household", claims.Role)
	assert.Equal(t, "h-1", claims.HouseholdID)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	token, err := GenerateAccessToken(Subject{UserID: "u-1"}, "secret", 5)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other-secret")
	assert.Equal(t, ErrTokenInvalid, err)

	_, err = ValidateAccessToken("not.a.token", "secret")
	assert.Equal(t, ErrTokenInvalid, err)

	expired, err := GenerateAccessToken(Subject{UserID: "u-1"}, "secret", -1)
	require.NoError(t, err)
	_, err = ValidateAccessToken(expired, "secret")
	assert.Equal(t, ErrTokenExpired, err)
}
