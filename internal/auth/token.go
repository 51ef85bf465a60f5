package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/auth/entity"
)

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

type claims struct {
	Username string `json:"preferred_username,omitempty"`
	jwt.RegisteredClaims
}

// Issue creates an access token for the principal and returns its lifetime.
func (t *TokenIssuer) Issue(p entity.Principal) (string, time.Duration, error) {
	now := t.now()
	c := claims{
		Username: p.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, t.ttl, nil
}

// Parse verifies signature, issuer and expiry and returns the principal.
func (t *TokenIssuer) Parse(token string) (entity.Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(tk *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return entity.Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return entity.Principal{}, fmt.Errorf("%w: bad subject", ErrUnauthorized)
	}
	return entity.Principal{ID: id, Username: c.Username}, nil
}
