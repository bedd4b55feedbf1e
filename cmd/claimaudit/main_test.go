package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRulebookDefaultsRoundTrip(t *testing.T) {
	out, err := run(t, "rulebook", "defaults")
	require.NoError(t, err)
	assert.Contains(t, out, "duplicate_photo: 40")

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o600))
	out, err = run(t, "rulebook", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}

func TestRulebookValidateRejectsBadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fraud:\n  high_threshold: 10\n"), 0o600))
	_, err := run(t, "rulebook", "validate", path)
	assert.Error(t, err)
}

func TestReadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.txt")
	require.NoError(t, os.WriteFile(path, []byte("Tax must be itemized."), 0o600))

	got, err := readPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, "Tax must be itemized.", got)

	got, err = readPolicy("Four corner photos required.")
	require.NoError(t, err)
	assert.Equal(t, "Four corner photos required.", got)
}

func TestReadFilesResolvesKinds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "estimate.txt")
	require.NoError(t, os.WriteFile(path, []byte("Body labor $55/hr"), 0o600))

	files, err := readFiles([]string{path})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "estimate.txt", files[0].Name())
	assert.Equal(t, "text", string(files[0].Kind()))

	_, err = readFiles([]string{filepath.Join(dir, "missing.pdf")})
	assert.Error(t, err)
}
