package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
)

const tokenIssuer = "lendingd"

var ErrSigningTokenFailed = errors.New("signing token failed")

// Claims are the JWT claims of a bearer token. The subject is the user ID.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer issues and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) TokenIssuer {
	return TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the issuer using clock for issuing and expiry checks.
func (i TokenIssuer) WithClock(clock func() time.Time) TokenIssuer {
	i.now = clock
	return i
}

// Issue signs a token for the user, valid for the configured TTL.
func (i TokenIssuer) Issue(user core.User) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, errors.Join(ErrSigningTokenFailed, err)
	}

	return signed, expiresAt, nil
}

// Verify resolves a raw token into the user it was issued for.
// Every failure, including expiry and foreign signing methods, is core.ErrInvalidCredential.
func (i TokenIssuer) Verify(raw string) (core.User, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return core.User{}, core.ErrMissingCredential
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	var claims Claims
	token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, core.ErrInvalidCredential
		}

		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return core.User{}, core.ErrInvalidCredential
	}

	now := i.now()
	if !claims.VerifyExpiresAt(now, true) || !claims.VerifyIssuer(tokenIssuer, true) {
		return core.User{}, core.ErrInvalidCredential
	}

	if claims.Subject == "" || (claims.Role != core.RoleAdmin && claims.Role != core.RolePatron) {
		return core.User{}, core.ErrInvalidCredential
	}

	return core.User{ID: claims.Subject, Username: claims.Username, Role: claims.Role}, nil
}
