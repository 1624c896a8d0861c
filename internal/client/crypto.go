package client

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keySize          = 32 // AES-256
	nonceSize        = 12
	saltSize         = 16
	pbkdf2Iterations = 100000

	// encryptedPrefix marks notes that were sealed on the client
	encryptedPrefix = "enc:v1:"
)

// Crypto seals activity notes before they leave the machine
type Crypto struct {
	key []byte
}

// NewCrypto derives a key from passphrase and salt
func NewCrypto(passphrase string, salt []byte) *Crypto {
	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keySize, sha256.New)
	return &Crypto{key: key}
}

// GenerateSalt generates a random salt
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// IsEncrypted reports whether notes were produced by EncryptNotes
func IsEncrypted(notes string) bool {
	return strings.HasPrefix(notes, encryptedPrefix)
}

// EncryptNotes seals notes with AES-256-GCM. Empty notes stay empty.
func (c *Crypto) EncryptNotes(notes string) (string, error) {
	if notes == "" || IsEncrypted(notes) {
		return notes, nil
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(notes), nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptNotes opens notes sealed by EncryptNotes; other text is returned as is
func (c *Crypto) DecryptNotes(notes string) (string, error) {
	if !IsEncrypted(notes) {
		return notes, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(notes, encryptedPrefix))
	if err != nil {
		return "", err
	}
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}
	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", errors.New("decryption failed: invalid passphrase or corrupted data")
	}
	return string(plaintext), nil
}

func (c *Crypto) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Crypto returns a Crypto for passphrase, creating and storing a salt on
// first use.
func (c *Client) Crypto(passphrase string) (*Crypto, error) {
	if c.session.Salt == "" {
		salt, err := GenerateSalt()
		if err != nil {
			return nil, err
		}
		c.session.Salt = base64.StdEncoding.EncodeToString(salt)
		if err := c.saveSession(); err != nil {
			return nil, err
		}
	}

	salt, err := base64.StdEncoding.DecodeString(c.session.Salt)
	if err != nil {
		return nil, err
	}
	return NewCrypto(passphrase, salt), nil
}
