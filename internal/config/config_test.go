package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	t.Setenv(EnvRemoteURL, "")
	t.Setenv(EnvAPIToken, "")

	m := NewManagerAt(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, m.Load())
	assert.Equal(t, DefaultConfig(), m.Get())
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv(EnvRemoteURL, "")
	t.Setenv(EnvAPIToken, "")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	m := NewManagerAt(path)

	cfg := DefaultConfig()
	cfg.Remote.URL = "http://192.168.1.20:8088"
	cfg.Remote.Timeout = 2 * time.Second
	cfg.Listen.Port = 9000
	cfg.TrayEnabled = false
	m.Set(cfg)
	require.NoError(t, m.Save())

	loaded := NewManagerAt(path)
	require.NoError(t, loaded.Load())
	assert.Equal(t, cfg, loaded.Get())
}

func TestLoadPartialFile(t *testing.T) {
	t.Setenv(EnvRemoteURL, "")
	t.Setenv(EnvAPIToken, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("remote:\n  url: http://10.0.0.5:8088\n"), 0600))

	m := NewManagerAt(path)
	require.NoError(t, m.Load())
	assert.Equal(t, "http://10.0.0.5:8088", m.Get().Remote.URL)
	assert.Equal(t, 8090, m.Get().Listen.Port)
	assert.Equal(t, 5*time.Second, m.Get().Remote.Timeout)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvRemoteURL, "http://override:8088")
	t.Setenv(EnvAPIToken, "secret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("remote:\n  url: http://file:8088\n"), 0600))

	m := NewManagerAt(path)
	require.NoError(t, m.Load())
	assert.Equal(t, "http://override:8088", m.Get().Remote.URL)
	assert.Equal(t, "secret", m.Get().Remote.Token)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv(EnvRemoteURL, "")
	t.Setenv(EnvAPIToken, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen:\n  port: 70000\n"), 0600))
	assert.Error(t, NewManagerAt(path).Load())

	require.NoError(t, os.WriteFile(path, []byte("log: [not a map"), 0600))
	assert.Error(t, NewManagerAt(path).Load())
}

func TestChangeCallback(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), "config.yaml"))
	calls := 0
	m.RegisterChangeCallback(func() { calls++ })

	m.Set(DefaultConfig())
	assert.Equal(t, 1, calls)
}

func TestLoadRunsChangeCallback(t *testing.T) {
	t.Setenv(EnvRemoteURL, "")
	t.Setenv(EnvAPIToken, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("remote:\n  url: http://10.0.0.5:8088\n"), 0600))

	m := NewManagerAt(path)
	var seen string
	m.RegisterChangeCallback(func() { seen = m.Get().Remote.URL })

	require.NoError(t, m.Load())
	assert.Equal(t, "http://10.0.0.5:8088", seen)

	require.NoError(t, os.WriteFile(path, []byte("remote:\n  url: not a url\n"), 0600))
	seen = ""
	assert.Error(t, m.Load())
	assert.Empty(t, seen)
	assert.Equal(t, "http://10.0.0.5:8088", m.Get().Remote.URL)
}

func TestListenAddr(t *testing.T) {
	assert.Equal(t, ":8090", DefaultConfig().Listen.Addr())
}
