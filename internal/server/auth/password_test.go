package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCredentials_PlainPassword(t *testing.T) {
	c := Credentials{Username: "admin", Password: "s3cret"}

	assert.True(t, c.Check("admin", "s3cret"))
	assert.False(t, c.Check("admin", "wrong"))
	assert.False(t, c.Check("root", "s3cret"))
}

func TestCredentials_HashWinsOverPlain(t *testing.T) {
	h, err := bcrypt.GenerateFromPassword([]byte("hashed"), bcrypt.MinCost)
	require.NoError(t, err)

	c := Credentials{Username: "admin", Password: "plain", PasswordHash: string(h)}

	assert.True(t, c.Check("admin", "hashed"))
	assert.False(t, c.Check("admin", "plain"))
}

func TestCredentials_EmptyUsernameNeverMatches(t *testing.T) {
	c := Credentials{}
	assert.False(t, c.Check("", ""))
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("pw")
	require.NoError(t, err)

	c := Credentials{Username: "op", PasswordHash: h}
	assert.True(t, c.Check("op", "pw"))
}
