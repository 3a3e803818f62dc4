// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	tokenTTL time.Duration
)

// Init generates a fresh ed25519 key pair for signing session tokens and
// reads TOKEN_EXPIRE_TIME (a Go duration; empty, "0" or "never" disables
// expiry). Existing sessions do not survive a restart.
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("auth: failed to generate ed25519 key pair: %w", err)
	}

	raw := os.Getenv("TOKEN_EXPIRE_TIME")
	if raw == "" || raw == "0" || raw == "never" {
		tokenTTL = 0
		return nil
	}
	tokenTTL, err = time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("auth: failed to parse TOKEN_EXPIRE_TIME: %w", err)
	}
	return nil
}

// CreateToken signs a session JWT with "sub" = userID.
func CreateToken(userID string) (string, error) {
	claims := jwt.MapClaims{"sub": userID}
	if tokenTTL > 0 {
		claims["exp"] = time.Now().Add(tokenTTL).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// VerifyToken validates a session JWT and returns its subject.
func VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("auth: token missing subject")
	}
	return sub, nil
}

// UserIDFromRequest extracts and verifies the session token from the
// auth_token cookie or, failing that, a Bearer Authorization header.
func UserIDFromRequest(r *http.Request) (string, error) {
	if cookie, err := r.Cookie("auth_token"); err == nil && cookie.Value != "" {
		return VerifyToken(cookie.Value)
	}
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return VerifyToken(header[len(prefix):])
	}
	return "", fmt.Errorf("auth: no session token in request")
}
