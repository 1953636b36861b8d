package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// exp and iat are encoded at millisecond precision so a token expires at its
// issue instant plus the ttl, not at the preceding whole second.
func init() {
	jwt.TimePrecision = time.Millisecond
}

type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens. It keeps no server side
// state; revocation happens through the session ledger.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// WithClock returns a copy of the issuer reading time from now.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	return &TokenIssuer{secret: i.secret, now: now}
}

func (i *TokenIssuer) Issue(subject string, sessionID string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("empty token subject")
	}

	now := i.now().Truncate(jwt.TimePrecision)
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}

	expiresAt, err := decodedTime(claims.ExpiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// decodedTime returns d as Verify will read it back from the token, so the
// reported expiry is the exact instant at which verification starts failing.
func decodedTime(d *jwt.NumericDate) (time.Time, error) {
	raw, err := d.MarshalJSON()
	if err != nil {
		return time.Time{}, fmt.Errorf("encode numeric date: %w", err)
	}
	var back jwt.NumericDate
	if err := back.UnmarshalJSON(raw); err != nil {
		return time.Time{}, fmt.Errorf("decode numeric date: %w", err)
	}
	return back.Time.UTC(), nil
}

// Verify rejects tokens with a bad signature, malformed claims, a signing
// method other than HS256, or whose expiry instant is not after now.
func (i *TokenIssuer) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
