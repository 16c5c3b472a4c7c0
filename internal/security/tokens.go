package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, or signed
// with the wrong key.
var ErrInvalidToken = errors.New("invalid token")

// Claims holds the JWT claims for a development-backend bearer token.
type Claims struct {
	jwt.RegisteredClaims
	OrgID string `json:"org_id"`
	Role  string `json:"role"`
}

// TokenProvider issues and validates the ES256 bearer tokens the development
// backend hands out. The signing key is ephemeral: generated per process, so
// every restart invalidates outstanding dev tokens.
type TokenProvider struct {
	key      *ecdsa.PrivateKey
	issuer   string
	audience string
	ttl      time.Duration
}

// NewEphemeralTokenProvider returns a TokenProvider with a fresh P-256 key.
func NewEphemeralTokenProvider(issuer, audience string, ttl time.Duration) (*TokenProvider, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	if ttl == 0 {
		ttl = time.Hour
	}
	return &TokenProvider{key: key, issuer: issuer, audience: audience, ttl: ttl}, nil
}

// Issue signs a bearer token for the given user, org, and role.
func (p *TokenProvider) Issue(userID, orgID, role string) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(p.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		OrgID: orgID,
		Role:  role,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(p.key)
	return token, expiresAt, err
}

// Validate parses and validates a token (signature, exp, iss, aud) and
// returns its subject user ID.
func (p *TokenProvider) Validate(tokenString string) (userID string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, ErrInvalidToken
		}
		return &p.key.PublicKey, nil
	}, jwt.WithIssuer(p.issuer), jwt.WithAudience(p.audience))
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
