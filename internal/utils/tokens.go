package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// refreshTokenBytes — длина refresh-токена по умолчанию: 256 бит энтропии.
const refreshTokenBytes = 32

// NewRefreshToken — непрозрачный hex-токен из криптослучайных байт.
// Неположительный размер заменяется значением по умолчанию.
func NewRefreshToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = refreshTokenBytes
	}
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
