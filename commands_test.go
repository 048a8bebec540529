package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"daya/internal/services"
	"daya/internal/sharedstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	confirmReset = false
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DAYA_CONFIG", "")
	t.Setenv("TG_TOKEN", "")
	t.Setenv("TG_CHAT_ID", "")
	t.Setenv("DB_PATH", filepath.Join(dir, "daya.db"))
	t.Setenv("SHARED_PATH", filepath.Join(dir, "shared.db"))
	t.Setenv("SHARED_BACKEND", "")
	t.Setenv("TZ_NAME", "UTC")
}

func TestHabitsCommands(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "habits", "add", "Nitnem", "🙏")
	require.NoError(t, err)
	assert.Contains(t, out, "added 🙏 Nitnem")

	out, err = runCLI(t, "habits")
	require.NoError(t, err)
	assert.Contains(t, out, "1. 🏆 Morning Simran [morning_simran] built-in")
	assert.Contains(t, out, "3. 🙏 Nitnem")
}

func TestStatusCommand(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Morning Simran")
	assert.Contains(t, out, "sehaj paath: 0/1430 angs")
	assert.Contains(t, out, "widget: simran=false angs=0 streak=0")
}

func TestResetNeedsConfirmation(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "reset")
	assert.ErrorContains(t, err, "--yes")

	out, err := runCLI(t, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "records removed")
}

func TestResetFailsWhileBadgerIsLocked(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "shared")
	t.Setenv("SHARED_BACKEND", "badger")
	t.Setenv("SHARED_PATH", path)

	holder, err := sharedstore.Open(sharedstore.DefaultConfig(path))
	require.NoError(t, err)
	defer holder.Close()

	out, err := runCLI(t, "reset", "--yes")
	assert.ErrorIs(t, err, services.ErrSharedUnavailable)
	assert.NotContains(t, out, "records removed")
}

func TestServeRequiresTelegram(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "serve")
	assert.ErrorContains(t, err, "TG_TOKEN")
}
