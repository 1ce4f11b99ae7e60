package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	hashSecret = os.Getenv("OTA_HASH_SECRET")
)

const sessionDuration = 24 * time.Hour

func GenerateApiKey() (string, error) {
	key := make([]byte, 32, 32)
	_, err := rand.Read(key)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(key), nil
}

func HashApiKey(key string) string {
	h := hmac.New(sha256.New, []byte(hashSecret))
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}

func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)

	return string(hash), err
}

func ValidatePassword(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func GenerateSessionToken() (string, error) {
	token := make([]byte, 32, 32)
	_, err := rand.Read(token)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(token), nil
}

func GetExpiryForSession() int64 {
	return time.Now().Add(sessionDuration).Unix()
}
