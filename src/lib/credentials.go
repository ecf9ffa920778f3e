package lib

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"

	"github.com/google/uuid"
)

// CredentialLength is the hex length of a sealed ticket id:
// nonce (12) + id (16) + tag (16) bytes.
const CredentialLength = 2 * (12 + 16 + 16)

var ErrInvalidCredential = errors.New("invalid credential")

// SealedCredentials issues QR credentials by sealing the ticket id with
// AES-GCM under a server key. Credentials are fixed length, unguessable and
// carry a random nonce, so two tickets never share one.
type SealedCredentials struct {
	gcm cipher.AEAD
}

func NewSealedCredentials(key []byte) (*SealedCredentials, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &SealedCredentials{gcm: gcm}, nil
}

func (c *SealedCredentials) Generate(ticketID uuid.UUID) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	cipherText := c.gcm.Seal(nonce, nonce, ticketID[:], nil)
	return hex.EncodeToString(cipherText), nil
}

// Open returns the ticket id sealed in a credential. Anything not produced by
// Generate under the same key is rejected.
func (c *SealedCredentials) Open(credential string) (uuid.UUID, error) {
	if len(credential) != CredentialLength {
		return uuid.Nil, ErrInvalidCredential
	}
	cipherText, err := hex.DecodeString(credential)
	if err != nil {
		return uuid.Nil, ErrInvalidCredential
	}
	n := c.gcm.NonceSize()
	plain, err := c.gcm.Open(nil, cipherText[:n], cipherText[n:], nil)
	if err != nil {
		return uuid.Nil, ErrInvalidCredential
	}
	id, err := uuid.FromBytes(plain)
	if err != nil {
		return uuid.Nil, ErrInvalidCredential
	}
	return id, nil
}
