package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/support-desk/internal/auth"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("DESK_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("DESK_AGENTS", "")
}

func TestTokenCommand(t *testing.T) {
	isolateConfig(t)
	t.Setenv("JWT_SECRET", "test-secret")

	out, err := execute(t, "", "token", "--operator", "dana", "--ttl", "5m")
	require.NoError(t, err)

	claims, err := auth.NewTokenManager("test-secret", time.Hour).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "dana", claims.Operator)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	isolateConfig(t)
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "", "token", "--operator", "dana")

	assert.ErrorContains(t, err, "JWT_SECRET is required")
}

func TestConsoleCommand(t *testing.T) {
	isolateConfig(t)

	out, err := execute(t, "1\nprinter jam\n4\n7\n", "console", "--agents", "Ada,Linus")
	require.NoError(t, err)

	assert.Contains(t, out, "Regular Ticket Added:")
	assert.Contains(t, out, "Assigned Ticket (Ada, regular lane):")
	assert.Contains(t, out, "Exiting Support System. Goodbye!")
}

func TestConsoleCommand_InterruptEndsSession(t *testing.T) {
	isolateConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	consoleCmd.SetContext(ctx)
	t.Cleanup(func() { consoleCmd.SetContext(context.Background()) })

	out, err := execute(t, "", "console")
	require.NoError(t, err)

	assert.Contains(t, out, "Interrupted. Goodbye!")
}

func TestTrimAll(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, trimAll([]string{" a ", "", "b"}))
}
