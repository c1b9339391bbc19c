package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range GetRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"start", "version", "config", "keytab"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestVersion(t *testing.T) {
	Version, Commit = "1.2.3", "abc123"

	var buf bytes.Buffer
	root := GetRootCmd()
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())

	assert.Contains(t, buf.String(), "kerbgate 1.2.3")
	assert.Contains(t, buf.String(), "abc123")

	buf.Reset()
	root.SetArgs([]string{"version", "--short"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "1.2.3\n", buf.String())
}

func TestNewSealer(t *testing.T) {
	s, err := newSealer("")
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = newSealer("short")
	assert.Error(t, err)
}

func TestGetConfigSource(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.Equal(t, "/etc/kerbgate/config.yaml", getConfigSource("/etc/kerbgate/config.yaml"))
	assert.Equal(t, "defaults", getConfigSource(""))
}
