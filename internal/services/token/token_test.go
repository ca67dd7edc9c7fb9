// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package token_test

import (
	"strings"
	"testing"
	"time"

	"codeberg.org/oliverandrich/accounts-api/internal/services/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newCodec() *token.Codec {
	return token.NewCodec([]byte("test-secret"), 15*time.Minute, 7*24*time.Hour)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	codec := newCodec()

	for _, kind := range []token.Kind{token.KindAccess, token.KindRefresh} {
		t.Run(string(kind), func(t *testing.T) {
			signed, err := codec.Issue(kind, "jon.snow@winterfell.org", time.Hour, t0)
			require.NoError(t, err)

			claims, err := codec.Verify(signed, t0)

			require.NoError(t, err)
			assert.Equal(t, kind, claims.Kind)
			assert.Equal(t, "jon.snow@winterfell.org", claims.Email)
			assert.True(t, claims.ExpiresAt.Equal(t0.Add(time.Hour)))
		})
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	codec := newCodec()
	ttl := 10 * time.Minute

	signed, err := codec.Issue(token.KindAccess, "a@b.com", ttl, t0)
	require.NoError(t, err)

	_, err = codec.Verify(signed, t0.Add(ttl-time.Second))
	require.NoError(t, err)

	_, err = codec.Verify(signed, t0.Add(ttl))
	require.ErrorIs(t, err, token.ErrTokenInvalid)

	_, err = codec.Verify(signed, t0.Add(ttl+time.Hour))
	assert.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestVerify_TamperedCharacter(t *testing.T) {
	codec := newCodec()

	signed, err := codec.Issue(token.KindRefresh, "a@b.com", time.Hour, t0)
	require.NoError(t, err)

	for i := range len(signed) {
		replacement := byte('A')
		if signed[i] == 'A' {
			replacement = 'B'
		}
		tampered := signed[:i] + string(replacement) + signed[i+1:]

		_, err := codec.Verify(tampered, t0)
		require.ErrorIs(t, err, token.ErrTokenInvalid, "position %d", i)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	signed, err := newCodec().Issue(token.KindAccess, "a@b.com", time.Hour, t0)
	require.NoError(t, err)

	other := token.NewCodec([]byte("other-secret"), time.Minute, time.Hour)
	_, err = other.Verify(signed, t0)

	assert.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestVerify_Malformed(t *testing.T) {
	codec := newCodec()

	for _, input := range []string{"", "not.a.jwt", "abc", strings.Repeat(".", 3)} {
		_, err := codec.Verify(input, t0)
		assert.ErrorIs(t, err, token.ErrTokenInvalid, "input %q", input)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":   "access",
		"email": "a@b.com",
		"exp":   t0.Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newCodec().Verify(signed, t0)

	assert.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestVerify_RequiresExpiry(t *testing.T) {
	claims := jwt.MapClaims{"sub": "access", "email": "a@b.com"}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newCodec().Verify(signed, t0)

	assert.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestVerify_UnknownSubject(t *testing.T) {
	codec := newCodec()
	signed, err := codec.Issue(token.Kind("signup"), "a@b.com", time.Hour, t0)
	require.NoError(t, err)

	_, err = codec.Verify(signed, t0)

	assert.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestPair(t *testing.T) {
	codec := newCodec()

	pair, err := codec.Pair("a@b.com", t0)
	require.NoError(t, err)

	access, err := codec.Verify(pair.Access, t0)
	require.NoError(t, err)
	assert.Equal(t, token.KindAccess, access.Kind)
	assert.True(t, access.ExpiresAt.Equal(t0.Add(15*time.Minute)))

	refresh, err := codec.Verify(pair.Refresh, t0)
	require.NoError(t, err)
	assert.Equal(t, token.KindRefresh, refresh.Kind)
	assert.True(t, refresh.ExpiresAt.Equal(t0.Add(7*24*time.Hour)))

	// the access token is gone after its TTL while the refresh token lives on
	_, err = codec.Verify(pair.Access, t0.Add(15*time.Minute))
	require.ErrorIs(t, err, token.ErrTokenInvalid)
	_, err = codec.Verify(pair.Refresh, t0.Add(15*time.Minute))
	assert.NoError(t, err)
}

func TestWireClaims(t *testing.T) {
	signed, err := newCodec().Issue(token.KindAccess, "a@b.com", time.Hour, t0)
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(signed, jwt.MapClaims{})
	require.NoError(t, err)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "access", claims["sub"])
	assert.Equal(t, "a@b.com", claims["email"])
	assert.InDelta(t, float64(t0.Add(time.Hour).Unix()), claims["exp"], 0)
	assert.Len(t, claims, 3)
	assert.Equal(t, "HS256", parsed.Header["alg"])
}
