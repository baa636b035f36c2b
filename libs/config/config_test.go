package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPort(t *testing.T) {
	t.Setenv("SLOTBOOK_PORT", "8083")
	p, err := Port("SLOTBOOK_PORT", "1")
	require.NoError(t, err)
	assert.Equal(t, "8083", p)

	t.Setenv("SLOTBOOK_PORT", "99999")
	_, err = Port("SLOTBOOK_PORT", "1")
	assert.Error(t, err)
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("SLOTBOOK_INT", "12")
	t.Setenv("SLOTBOOK_BAD_INT", "x")
	t.Setenv("SLOTBOOK_BOOL", "yes")
	t.Setenv("SLOTBOOK_DURATION", "45")
	t.Setenv("SLOTBOOK_LIST", " a, ,b ")

	assert.Equal(t, 12, Int("SLOTBOOK_INT", 3))
	assert.Equal(t, 3, Int("SLOTBOOK_BAD_INT", 3))
	assert.True(t, Bool("SLOTBOOK_BOOL", false))
	assert.True(t, Bool("SLOTBOOK_UNSET_BOOL", true))
	assert.Equal(t, 45*time.Second, Duration("SLOTBOOK_DURATION", time.Second))
	assert.Equal(t, []string{"a", "b"}, List("SLOTBOOK_LIST", ""))
}

func TestRequiredString(t *testing.T) {
	_, err := RequiredString("SLOTBOOK_DEFINITELY_UNSET")
	assert.EqualError(t, err, "SLOTBOOK_DEFINITELY_UNSET is required")
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SLOTBOOK_FROM_FILE=hello\n"), 0o600))
	t.Setenv("SLOTBOOK_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("SLOTBOOK_FROM_FILE"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "hello", String("SLOTBOOK_FROM_FILE", ""))
}
