// Package pii encrypts personally identifying attributes before they leave the
// service and decrypts them after they are read back.
package pii

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Codec transforms a batch of values. Implementations must return a slice of the
// same length in the same order.
type Codec interface {
	Encrypt(ctx context.Context, tenantID string, values []string) ([]string, error)
	Decrypt(ctx context.Context, tenantID string, values []string) ([]string, error)
}

// Passthrough leaves values unchanged.
type Passthrough struct{}

func (Passthrough) Encrypt(_ context.Context, _ string, values []string) ([]string, error) {
	return values, nil
}

func (Passthrough) Decrypt(_ context.Context, _ string, values []string) ([]string, error) {
	return values, nil
}

const prefix = "enc:v1:"

// AEADCodec encrypts with XChaCha20-Poly1305 using a nonce derived from the
// plaintext, so equal inputs give equal ciphertexts and exact-match search on
// encrypted columns keeps working. The tenant id is bound as associated data.
// Substring search on encrypted values only matches whole values.
type AEADCodec struct {
	encKey   []byte
	nonceKey []byte
}

// NewAEADCodec derives the encryption and nonce keys from a base64 secret of at
// least 32 bytes.
func NewAEADCodec(secret string) (*AEADCodec, error) {
	master, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("decode pii key: %w", err)
	}
	if len(master) < 32 {
		return nil, errors.New("pii key must be at least 32 bytes")
	}
	kdf := hkdf.New(sha256.New, master, nil, []byte("recordhub pii v1"))
	encKey := make([]byte, chacha20poly1305.KeySize)
	nonceKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, encKey); err != nil {
		return nil, fmt.Errorf("derive pii key: %w", err)
	}
	if _, err := io.ReadFull(kdf, nonceKey); err != nil {
		return nil, fmt.Errorf("derive pii key: %w", err)
	}
	return &AEADCodec{encKey: encKey, nonceKey: nonceKey}, nil
}

func (c *AEADCodec) Encrypt(_ context.Context, tenantID string, values []string) ([]string, error) {
	aead, err := chacha20poly1305.NewX(c.encKey)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	out := make([]string, len(values))
	for i, v := range values {
		if v == "" || strings.HasPrefix(v, prefix) {
			out[i] = v
			continue
		}
		mac := hmac.New(sha256.New, c.nonceKey)
		mac.Write([]byte(tenantID))
		mac.Write([]byte{0})
		mac.Write([]byte(v))
		nonce := mac.Sum(nil)[:chacha20poly1305.NonceSizeX]

		sealed := aead.Seal(nonce, nonce, []byte(v), []byte(tenantID))
		out[i] = prefix + base64.RawURLEncoding.EncodeToString(sealed)
	}
	return out, nil
}

// Decrypt returns values without the codec prefix unchanged, so rows written
// before encryption was enabled remain readable.
func (c *AEADCodec) Decrypt(_ context.Context, tenantID string, values []string) ([]string, error) {
	aead, err := chacha20poly1305.NewX(c.encKey)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	out := make([]string, len(values))
	for i, v := range values {
		if !strings.HasPrefix(v, prefix) {
			out[i] = v
			continue
		}
		sealed, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(v, prefix))
		if err != nil || len(sealed) < chacha20poly1305.NonceSizeX {
			return nil, fmt.Errorf("decrypt value %d: malformed ciphertext", i)
		}
		nonce, ct := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
		plain, err := aead.Open(nil, nonce, ct, []byte(tenantID))
		if err != nil {
			return nil, fmt.Errorf("decrypt value %d: %w", i, err)
		}
		out[i] = string(plain)
	}
	return out, nil
}
