package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/title/repository"
	"library-backend/internal/shared"
	"library-backend/pkg/jwt"
)

func Test_TokenCmd_MintsVerifiableToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "ctl-secret")
	t.Setenv("STORE_DRIVER", "memory")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--env-file", "does-not-exist.env", "token", "--role", "admin",
		"--member-id", "6f1c2a8e-3d5b-4c1a-9e2f-7a8b9c0d1e2f"})

	require.NoError(t, root.Execute())

	claims, err := jwt.NewManager("ctl-secret", time.Minute).ValidateAccessToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "6f1c2a8e-3d5b-4c1a-9e2f-7a8b9c0d1e2f", claims.UserID)
	assert.Equal(t, shared.RoleAdmin, claims.Role)
}

func Test_TokenCmd_RejectsBadInput(t *testing.T) {
	for _, args := range [][]string{
		{"token", "--role", "root"},
		{"token", "--member-id", "nope"},
	} {
		root := newRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append([]string{"--env-file", "does-not-exist.env"}, args...))
		assert.Error(t, root.Execute(), args)
	}
}

func Test_seedTitles_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()

	created, err := seedTitles(ctx, repo, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, len(demoTitles), created)

	var out bytes.Buffer
	created, err = seedTitles(ctx, repo, &out)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Contains(t, out.String(), "skip")
}
