// Package utils provides helper functions for token creation and
// hashing shared by the auth handler and the session middleware.
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 JWT plus its expiry. Access tokens are
// short-lived and travel in the Authorization header or the access
// cookie.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// RefreshToken is the long-lived raw token handed to the client. Only
// its SHA-256 hash is ever persisted.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// Claims carried by an access token. TenantID is zero for profiles not
// yet attached to a shop.
type Claims struct {
	UserID    uint64
	ProfileID uint64
	TenantID  uint64
	Role      string
}

var ErrTokenInvalid = errors.New("invalid access token")

// NewAccessToken signs an HS256 JWT embedding the actor's identity,
// profile, tenant and role.
func NewAccessToken(secret string, cl Claims, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":        cl.UserID,
		"profile_id": cl.ProfileID,
		"tenant_id":  cl.TenantID,
		"role":       cl.Role,
		"exp":        exp.Unix(),
		"iat":        time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of an access token
// and returns its claims. Any parse or method mismatch collapses into
// ErrTokenInvalid; the caller does not need the distinction.
func ParseAccessToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}
	cl := Claims{}
	if v, ok := mc["sub"].(float64); ok {
		cl.UserID = uint64(v)
	}
	if v, ok := mc["profile_id"].(float64); ok {
		cl.ProfileID = uint64(v)
	}
	if v, ok := mc["tenant_id"].(float64); ok {
		cl.TenantID = uint64(v)
	}
	if v, ok := mc["role"].(string); ok {
		cl.Role = v
	}
	if cl.UserID == 0 {
		return Claims{}, ErrTokenInvalid
	}
	return cl, nil
}

// NewRefreshToken returns a cryptographically random raw token and its
// expiration.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hex digest of a raw refresh token.
// Storing only the hash keeps a leaked database from minting sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
