package main

import (
	"bytes"
	"strings"
	"testing"

	"crewpay/internal/models"
	"crewpay/internal/repositories/memory"
	"crewpay/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCmd(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	var out bytes.Buffer
	cmd := newRootCmd(openMemory(memory.NewStore()), &out)
	cmd.SetArgs([]string{"token", "--role", "reviewer", "--user-id", "5"})
	require.NoError(t, cmd.Execute())

	claims, err := utils.ParseToken([]byte("cli-secret"), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.UserID)
	assert.Equal(t, models.RoleReviewer, claims.Role)
	assert.True(t, claims.HasPermission(models.PermissionDisputeVote))
}

func TestTokenCmd_Validation(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	cmd := newRootCmd(openMemory(memory.NewStore()), &bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--role", "owner"})
	assert.Error(t, cmd.Execute())

	cmd = newRootCmd(openMemory(memory.NewStore()), &bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--role", "poster"})
	assert.Error(t, cmd.Execute())
}
