package utils // package utils provides helper functions for token creation and verification

import (
	"errors"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned by ParseAccessToken for any token that does
// not verify: bad signature, malformed structure, unexpected signing
// method, missing subject or passed expiry.  Callers must not
// differentiate these cases towards clients.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed HS256 JWT along with its expiry.  The
// Token field contains the serialized JWT string, Exp the UTC expiration
// time.  Access tokens are encoded in the Authorization header when
// calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the username used as the token subject, and a TTL in
// minutes.  The claims are deliberately minimal: subject (sub),
// expiration (exp) and issued at (iat).  The token carries no role; the
// authorization gate re-resolves the subject against the user store on
// every request, so role changes apply to tokens already in flight.
func NewAccessToken(secret, username string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub": username,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of a raw token string
// and returns the subject claim.  Only HMAC signatures are accepted; a
// token signed with any other method is rejected even if its signature
// would otherwise verify.  Every failure collapses into ErrInvalidToken.
func ParseAccessToken(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Type assert the signing method to HMAC; reject others.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
