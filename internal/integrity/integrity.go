// Package integrity implements the bundle verification contract shared
// between publish time (server) and install time (client).
//
// The checksum is a hex SHA-256 over the artifact bytes exactly as stored
// and downloaded. For encrypted bundles that means the ciphertext, so a
// client always verifies the digest before attempting decryption.
package integrity

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// ErrRejected is the single terminal failure state of a download attempt.
// Checksum mismatch, a malformed session key and decryption failure all
// collapse into it; a rejected artifact must never be applied.
var ErrRejected = fmt.Errorf("artifact rejected")

// Checksum computes the hex SHA-256 digest of everything read from r.
func Checksum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ChecksumBytes is Checksum over an in-memory artifact.
func ChecksumBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SessionKey is the unwrapped two-part value delivered alongside an
// encrypted bundle: the AES IV and the RSA-wrapped content key.
type SessionKey struct {
	Iv         []byte
	WrappedKey []byte
}

// ParseSessionKey validates and splits the opaque "iv:encryptedKey" wire
// form. Both components are base64.
func ParseSessionKey(s string) (SessionKey, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return SessionKey{}, fmt.Errorf("session key must have the form iv:encryptedKey")
	}

	iv, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return SessionKey{}, fmt.Errorf("session key iv is not valid base64: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return SessionKey{}, fmt.Errorf("session key iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}

	wrapped, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return SessionKey{}, fmt.Errorf("session key component is not valid base64: %w", err)
	}

	return SessionKey{Iv: iv, WrappedKey: wrapped}, nil
}

// VerifyArtifact checks the downloaded bytes against the checksum delivered
// with the update decision. A mismatch rejects the artifact.
func VerifyArtifact(data []byte, checksum string) error {
	if ChecksumBytes(data) != strings.ToLower(checksum) {
		return ErrRejected
	}
	return nil
}

// DecryptArtifact unwraps the session key with the device's provisioned RSA
// key and decrypts the artifact (AES-128-CBC, PKCS#7 padding). Any failure
// rejects the artifact.
func DecryptArtifact(data []byte, sessionKey string, priv *rsa.PrivateKey) ([]byte, error) {
	sk, err := ParseSessionKey(sessionKey)
	if err != nil {
		return nil, ErrRejected
	}

	key, err := rsa.DecryptOAEP(sha256.New(), nil, priv, sk.WrappedKey, nil)
	if err != nil {
		return nil, ErrRejected
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrRejected
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, ErrRejected
	}

	plain := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, sk.Iv).CryptBlocks(plain, data)

	plain, err = stripPadding(plain)
	if err != nil {
		return nil, ErrRejected
	}

	return plain, nil
}

// WrapSessionKey builds the wire form of a session key at publish time.
func WrapSessionKey(iv, wrappedKey []byte) string {
	return base64.StdEncoding.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(wrappedKey)
}

func stripPadding(data []byte) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	pad := data[len(data)-n:]
	if !bytes.Equal(pad, bytes.Repeat([]byte{byte(n)}, n)) {
		return nil, fmt.Errorf("invalid padding")
	}
	return data[:len(data)-n], nil
}
