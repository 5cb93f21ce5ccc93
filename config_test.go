package main

import (
	"os"
	"path/filepath"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	os.Unsetenv("PUTIO_ACCESS_TOKEN")
	homedir.Reset()
	t.Cleanup(homedir.Reset)
	return home
}

func TestLoadConfigDefaults(t *testing.T) {
	isolateHome(t)

	appConfig, err := LoadConfig()

	require.Nil(t, err)
	assert.Equal(t, "http://127.0.0.1:5500", appConfig.RelayURL)
	assert.Equal(t, 180, appConfig.PollTimeout)
	assert.Equal(t, 3, appConfig.PollPeriod)
	assert.Equal(t, "", appConfig.AccessToken)
}

func TestSaveTokenRoundTrip(t *testing.T) {
	home := isolateHome(t)

	require.Nil(t, SaveToken("tok-abc"))

	appConfig, err := LoadConfig()
	require.Nil(t, err)
	assert.Equal(t, "tok-abc", appConfig.AccessToken)

	stat, err := os.Stat(filepath.Join(home, ".putsync", "token"))
	require.Nil(t, err)
	assert.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
}

func TestEnvTokenWinsOverCache(t *testing.T) {
	isolateHome(t)
	require.Nil(t, SaveToken("tok-cached"))
	t.Setenv("PUTIO_ACCESS_TOKEN", "tok-env")

	appConfig, err := LoadConfig()

	require.Nil(t, err)
	assert.Equal(t, "tok-env", appConfig.AccessToken)
}

func TestConfigFileValues(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".putsync")
	require.Nil(t, os.MkdirAll(dir, 0o700))
	configBody := "relay_url: https://relay.example.com\npoll_timeout: 60\n"
	require.Nil(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(configBody), 0o600))

	appConfig, err := LoadConfig()

	require.Nil(t, err)
	assert.Equal(t, "https://relay.example.com", appConfig.RelayURL)
	assert.Equal(t, 60, appConfig.PollTimeout)
	// unset keys still get defaults
	assert.Equal(t, 3, appConfig.PollPeriod)
}
