package lockfile

import (
	"os"
	"path/filepath"
	"testing"

	"downfall/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	lock, err := Parse("Riot Client:1234:51234:s3cret:https\n")
	require.NoError(t, err)

	assert.Equal(t, Lockfile{
		Name:     "Riot Client",
		PID:      1234,
		Port:     51234,
		Password: "s3cret",
		Protocol: "https",
	}, lock)
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"name:1:2:pw",
		"name:abc:2:pw:https",
		"name:1:port:pw:https",
		"name:1:70000:pw:https",
	} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidFormat, "input %q", raw)
	}
}

func TestReaderRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lockfile")
	require.NoError(t, os.WriteFile(path, []byte("Riot Client:1:443:pw:https"), 0o600))

	r := NewReader(&config.Config{LockfilePath: path})
	lock, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 443, lock.Port)
	assert.Equal(t, "pw", lock.Password)

	missing := NewReader(&config.Config{LockfilePath: filepath.Join(dir, "nope")})
	_, err = missing.Read()
	assert.Error(t, err)
}

func TestNewReaderDefaultsPath(t *testing.T) {
	t.Setenv("LOCALAPPDATA", "/appdata")
	r := NewReader(&config.Config{})
	assert.Equal(t, filepath.Join("/appdata", "Riot Games", "Riot Client", "Config", "lockfile"), r.Path())
}
