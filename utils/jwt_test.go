package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("manager-1", "manager", "store-1", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "manager-1", claims.Subject)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, "store-1", claims.StoreID)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := GenerateToken("user-1", "user", "", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired)
	assert.Error(t, err)

	noSubject, err := GenerateToken("", "user", "", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(noSubject)
	assert.Error(t, err)

	_, err = ParseToken("garbage")
	assert.Error(t, err)
}
