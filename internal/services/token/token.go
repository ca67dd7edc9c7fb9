// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package token issues and verifies the signed access and refresh tokens
// handed out by the accounts API.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind is the subject of a token.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// ErrTokenInvalid is returned for any token that fails verification:
// bad signature, wrong algorithm, unparsable structure or expiry reached.
var ErrTokenInvalid = errors.New("invalid token")

// Claims is the verified content of a token.
type Claims struct {
	ExpiresAt time.Time
	Kind      Kind
	Email     string
}

// Pair is an access token together with its refresh token.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// jwtClaims is the wire form: {"sub": kind, "email": email, "exp": epoch}.
type jwtClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with one shared HMAC secret.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec creates a codec. The TTLs are used by Pair.
func NewCodec(secret []byte, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue signs a token of the given kind for email, valid until now+ttl.
func (c *Codec) Issue(kind Kind, email string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwtClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(kind),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenString as of now.
// A token is valid strictly before its expiry instant.
func (c *Codec) Verify(tokenString string, now time.Time) (*Claims, error) {
	claims := &jwtClaims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	kind := Kind(claims.Subject)
	if kind != KindAccess && kind != KindRefresh {
		return nil, ErrTokenInvalid
	}

	return &Claims{
		Kind:      kind,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Pair issues a fresh access and refresh token for email.
func (c *Codec) Pair(email string, now time.Time) (Pair, error) {
	access, err := c.Issue(KindAccess, email, c.accessTTL, now)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := c.Issue(KindRefresh, email, c.refreshTTL, now)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}
