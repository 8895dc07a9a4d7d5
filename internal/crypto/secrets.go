// Package crypto provides encryption/decryption for tenant SMTP passwords
// and generation of tenant API keys. Uses AES-256-GCM for authenticated
// encryption; the master key is passed in explicitly rather than read from
// the environment at call time.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
)

// ciphertextPrefix marks stored values as encrypted so plaintext can never
// be mistaken for ciphertext (or the other way around).
const ciphertextPrefix = "enc:"

// apiKeyAlphabet is the character set for generated API keys.
const apiKeyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultAPIKeyLength matches the minimum key size callers must present.
const DefaultAPIKeyLength = 32

// SecretCipher encrypts and decrypts tenant secrets with a fixed 32-byte
// master key. The zero value is unusable; construct with NewSecretCipher.
type SecretCipher struct {
	key []byte
}

// NewSecretCipher builds a cipher from a hex-encoded 32-byte master key
// (64 hex characters, as produced by GenerateKey).
func NewSecretCipher(keyHex string) (*SecretCipher, error) {
	if len(keyHex) != 64 {
		return nil, fmt.Errorf("master key must be exactly 32 bytes (64 hex characters)")
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid master key format (must be hex): %w", err)
	}
	return &SecretCipher{key: key}, nil
}

// Encrypt seals a plaintext secret for storage. A random nonce is generated
// per call and prepended to the ciphertext; output is base64 with an "enc:"
// prefix.
func (c *SecretCipher) Encrypt(plaintext string) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	// Nonce reuse with the same key breaks GCM entirely, so it must be
	// freshly random on every call.
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return ciphertextPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt opens a stored secret. GCM authenticates before decrypting, so
// tampered values fail with an error. The returned plaintext should only
// live in memory for the duration of the SMTP transaction and is never
// logged.
func (c *SecretCipher) Decrypt(stored string) (string, error) {
	if len(stored) < len(ciphertextPrefix) || stored[:len(ciphertextPrefix)] != ciphertextPrefix {
		return "", fmt.Errorf("invalid encrypted format (missing %q prefix)", ciphertextPrefix)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(stored[len(ciphertextPrefix):])
	if err != nil {
		return "", fmt.Errorf("invalid base64 encoding: %w", err)
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short (possible corruption or tampering)")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed (invalid key or tampered data): %w", err)
	}

	return string(plaintext), nil
}

func (c *SecretCipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM mode: %w", err)
	}
	return gcm, nil
}

// GenerateKey generates a new 32-byte AES master key in hex format.
// Run during initial setup or key rotation.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate random key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// GenerateAPIKey returns a random API key of the given length drawn
// uniformly from letters and digits, using a cryptographically secure
// source. Lengths below DefaultAPIKeyLength are rejected.
func GenerateAPIKey(length int) (string, error) {
	if length < DefaultAPIKeyLength {
		return "", fmt.Errorf("api key length must be at least %d", DefaultAPIKeyLength)
	}

	out := make([]byte, length)
	max := big.NewInt(int64(len(apiKeyAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate api key: %w", err)
		}
		out[i] = apiKeyAlphabet[n.Int64()]
	}
	return string(out), nil
}
