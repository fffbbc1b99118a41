package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	h, err := HashPassword("s3cret", MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", h)

	assert.True(t, CheckPassword(h, "s3cret"))
	assert.False(t, CheckPassword(h, "wrong"))
}

func TestHashPassword_RaisesLowCost(t *testing.T) {
	h, err := HashPassword("pw", 4)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, MinCost, cost)
}

func TestHashPassword_SaltsEachHash(t *testing.T) {
	a, err := HashPassword("same", MinCost)
	require.NoError(t, err)
	b, err := HashPassword("same", MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "pw"))
}
