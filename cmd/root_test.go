package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFailsOnMissingConfig(t *testing.T) {
	prev := cfgPath
	defer func() { cfgPath = prev }()
	cfgPath = filepath.Join(t.TempDir(), "absent.yaml")

	err := run(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration")
	assert.Contains(t, err.Error(), cfgPath)
}

func TestConfigFlagRegistered(t *testing.T) {
	f := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, f)
	assert.Equal(t, "config.yaml", f.DefValue)
	assert.Equal(t, "c", f.Shorthand)
}
