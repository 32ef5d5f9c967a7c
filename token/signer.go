package token

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const derivedKeySize = 32

// hkdfInfo binds derived keys to their use so the shared API key never signs
// anything directly.
var hkdfInfo = []byte("hr-gateway session token v1")

// HMACSigner signs and verifies session tokens with HS256.
type HMACSigner struct {
	secret []byte
}

// NewHMACSigner creates a signer using secret as the raw key.
func NewHMACSigner(secret []byte) *HMACSigner {
	return &HMACSigner{secret: secret}
}

// DeriveKey expands secret into a signing key with HKDF-SHA256.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("empty secret")
	}
	key := make([]byte, derivedKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("[token DeriveKey] hkdf: %w", err)
	}
	return key, nil
}

// SignerFromConfig uses signingKey when set and otherwise derives a key from
// apiKey. It returns nil when neither is configured.
func SignerFromConfig(signingKey, apiKey string) (*HMACSigner, error) {
	if signingKey != "" {
		return NewHMACSigner([]byte(signingKey)), nil
	}
	if apiKey == "" {
		return nil, nil
	}
	key, err := DeriveKey(apiKey)
	if err != nil {
		return nil, err
	}
	return NewHMACSigner(key), nil
}

func (h *HMACSigner) Sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("[HMACSigner Sign] failed to sign token: %w", err)
	}
	return signed, nil
}

// VerificationKey is a jwt.Keyfunc.
func (h *HMACSigner) VerificationKey(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return h.secret, nil
}
