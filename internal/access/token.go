package access

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a tier token.
type Claims struct {
	Tier Tier `json:"tier"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tier tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. A zero ttl means tokens never expire.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("access: token secret is required")
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for tier and returns it with its expiry (zero if none).
func (i *Issuer) Issue(tier Tier) (string, time.Time, error) {
	now := i.now().UTC()
	claims := &Claims{
		Tier: tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "planinsta",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	var exp time.Time
	if i.ttl > 0 {
		exp = now.Add(i.ttl)
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("access: sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses a token and returns the tier it carries.
func (i *Issuer) Verify(token string) (Tier, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return "", fmt.Errorf("access: parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", errors.New("access: invalid token")
	}
	return ParseTier(string(claims.Tier))
}
