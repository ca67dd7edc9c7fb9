// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/accounts-api/internal/auth"
	"codeberg.org/oliverandrich/accounts-api/internal/models"
	"codeberg.org/oliverandrich/accounts-api/internal/services/token"
	"codeberg.org/oliverandrich/accounts-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T) (*auth.Resolver, *token.Codec, *models.Account) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	account := testutil.NewTestAccount(t, repo, "jon@winterfell.org", testutil.Active)
	codec := token.NewCodec([]byte("test-secret"), 15*time.Minute, 24*time.Hour)

	resolver := auth.NewResolver(codec, repo)
	resolver.Now = func() time.Time { return testutil.T0 }
	return resolver, codec, account
}

func issue(t *testing.T, codec *token.Codec, kind token.Kind, email string) string {
	t.Helper()
	signed, err := codec.Issue(kind, email, time.Hour, testutil.T0)
	require.NoError(t, err)
	return signed
}

func TestResolve_AccessToken(t *testing.T) {
	resolver, codec, account := newResolver(t)
	header := "Bearer " + issue(t, codec, token.KindAccess, account.Email)

	resolved := resolver.Resolve(context.Background(), header)

	require.NotNil(t, resolved)
	assert.Equal(t, account.ID, resolved.ID)
}

func TestResolve_Anonymous(t *testing.T) {
	resolver, codec, account := newResolver(t)
	access := issue(t, codec, token.KindAccess, account.Email)

	expired, err := codec.Issue(token.KindAccess, account.Email, time.Minute, testutil.T0.Add(-time.Minute))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"empty header", ""},
		{"token without scheme", access},
		{"wrong scheme", "Basic " + access},
		{"extra field", "Bearer " + access + " extra"},
		{"garbage token", "Bearer not-a-token"},
		{"expired token", "Bearer " + expired},
		{"refresh token", "Bearer " + issue(t, codec, token.KindRefresh, account.Email)},
		{"unknown email", "Bearer " + issue(t, codec, token.KindAccess, "ghost@example.com")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, resolver.Resolve(context.Background(), tt.header))
		})
	}
}

func TestBearerToken(t *testing.T) {
	raw, ok := auth.BearerToken("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", raw)

	_, ok = auth.BearerToken("Bearer")
	assert.False(t, ok)
}

func TestContext_Account(t *testing.T) {
	account := &models.Account{ID: 123, Email: "jon@winterfell.org"}
	ctx := auth.WithAccount(context.Background(), account)

	assert.Equal(t, account, auth.GetAccount(ctx))
	assert.True(t, auth.IsAuthenticated(ctx))
}

func TestContext_Anonymous(t *testing.T) {
	ctx := auth.WithAccount(context.Background(), nil)

	assert.Nil(t, auth.GetAccount(ctx))
	assert.False(t, auth.IsAuthenticated(ctx))
}
