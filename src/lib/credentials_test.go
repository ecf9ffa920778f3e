package lib

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestSealedCredentials_RoundTrip(t *testing.T) {
	c, err := NewSealedCredentials(testKey)
	require.NoError(t, err)

	id := uuid.New()
	cred, err := c.Generate(id)
	require.NoError(t, err)
	assert.Len(t, cred, CredentialLength)

	got, err := c.Open(cred)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestSealedCredentials_Unique(t *testing.T) {
	c, err := NewSealedCredentials(testKey)
	require.NoError(t, err)

	id := uuid.New()
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		cred, err := c.Generate(id)
		require.NoError(t, err)
		assert.False(t, seen[cred], "duplicate credential")
		seen[cred] = true
	}
}

func TestSealedCredentials_RejectsForeign(t *testing.T) {
	c, err := NewSealedCredentials(testKey)
	require.NoError(t, err)
	other, err := NewSealedCredentials([]byte("fedcba9876543210"))
	require.NoError(t, err)

	cred, err := other.Generate(uuid.New())
	require.NoError(t, err)

	tampered := []byte(cred)
	if tampered[0] == '0' {
		tampered[0] = '1'
	} else {
		tampered[0] = '0'
	}

	cases := map[string]string{
		"other key": cred,
		"empty":     "",
		"short":     cred[:20],
		"not hex":   strings.Repeat("z", CredentialLength),
		"tampered":  string(tampered),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Open(in)
			assert.ErrorIs(t, err, ErrInvalidCredential)
		})
	}
}

func TestNewSealedCredentials_BadKey(t *testing.T) {
	_, err := NewSealedCredentials([]byte("short"))
	assert.Error(t, err)
}
