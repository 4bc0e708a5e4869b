// Package vault encrypts card numbers for storage.
//
// Ciphertexts carry a version prefix so that Decode can tell them apart from
// plaintext numbers written before encryption was introduced. Decode never
// fails: anything it cannot open is handed back unchanged.
package vault

import (
	"crypto/cipher"   // AEAD interface
	"crypto/hmac"     // Fingerprints
	"crypto/rand"     // Nonces
	"crypto/sha256"   // Key derivation and HMAC hash
	"encoding/base64" // Ciphertext encoding
	"encoding/hex"    // Fingerprint encoding
	"errors"          // Sentinel errors
	"fmt"             // Error wrapping
	"io"              // Key derivation reader
	"strings"         // Prefix and digit handling

	"golang.org/x/crypto/chacha20poly1305" // XChaCha20-Poly1305 AEAD
	"golang.org/x/crypto/hkdf"             // Subkey derivation
)

const prefix = "cv1:"

// Codec is what the rest of the system needs from the vault.
type Codec interface {
	Encode(number string) (string, error)
	Decode(value string) string
	Fingerprint(number string) string
}

// Vault is a Codec backed by XChaCha20-Poly1305 with keys derived from one secret.
type Vault struct {
	aead   cipher.AEAD
	macKey []byte
}

// New derives the encryption and fingerprint keys from secret.
func New(secret string) (*Vault, error) {
	if secret == "" {
		return nil, errors.New("vault: empty secret")
	}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("fbank card vault"))
	encKey := make([]byte, chacha20poly1305.KeySize)
	macKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, encKey); err != nil {
		return nil, fmt.Errorf("vault: derive key: %w", err)
	}
	if _, err := io.ReadFull(kdf, macKey); err != nil {
		return nil, fmt.Errorf("vault: derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(encKey)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	return &Vault{aead: aead, macKey: macKey}, nil
}

// Encode encrypts the digits of number. Already encoded values are returned as is.
func (v *Vault) Encode(number string) (string, error) {
	if number == "" || IsEncoded(number) {
		return number, nil
	}
	digits := Clean(number)
	nonce := make([]byte, v.aead.NonceSize(), v.aead.NonceSize()+len(digits)+v.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: nonce: %w", err)
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(digits), nil)
	return prefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode returns the grouped plaintext number. Plaintext input is only regrouped,
// and values that fail to decrypt come back unchanged.
func (v *Vault) Decode(value string) string {
	if !IsEncoded(value) {
		if d := Clean(value); IsCardNumber(d) {
			return Format(d)
		}
		return value
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, prefix))
	if err != nil || len(raw) < v.aead.NonceSize() {
		return value
	}
	nonce, sealed := raw[:v.aead.NonceSize()], raw[v.aead.NonceSize():]
	plain, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return value
	}
	if d := string(plain); IsCardNumber(d) {
		return Format(d)
	}
	return string(plain)
}

// Fingerprint is a keyed hash of the digits, stable across encryptions.
func (v *Vault) Fingerprint(number string) string {
	mac := hmac.New(sha256.New, v.macKey)
	mac.Write([]byte(Clean(number)))
	return hex.EncodeToString(mac.Sum(nil))
}

// IsEncoded reports whether value looks like vault output.
func IsEncoded(value string) bool {
	return strings.HasPrefix(value, prefix)
}

// Clean strips spaces and dashes.
func Clean(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(number))
}

// IsCardNumber reports whether s is exactly 16 digits.
func IsCardNumber(s string) bool {
	if len(s) != 16 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Format groups 16 digits as "1234 5678 9012 3456".
func Format(digits string) string {
	return digits[:4] + " " + digits[4:8] + " " + digits[8:12] + " " + digits[12:16]
}

// Mask hides all but the last four digits.
func Mask(digits string) string {
	d := Clean(digits)
	if len(d) < 4 {
		return "****"
	}
	return "**** **** **** " + d[len(d)-4:]
}
