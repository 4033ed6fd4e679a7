package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestGet_Defaults(t *testing.T) {
	cfg, err := Get(nil)
	require.NoError(t, err)

	assert.Equal(t, PlatformSimulate, cfg.Platform)
	assert.Equal(t, int64(1), cfg.ChainID)
	assert.Equal(t, DirectionWrap, cfg.Direction)
	assert.Equal(t, "", cfg.Amount)
	assert.Equal(t, "10", cfg.SimulatedBalance.String())
	assert.Equal(t, common.HexToAddress(defaultSimAccount), cfg.Account)
	assert.Equal(t, language.English, cfg.Language)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
}

func TestGet_Flags(t *testing.T) {
	cfg, err := Get([]string{"-direction", "UNWRAP", "-amount", "0.5", "-chainid", "137", "-lang", "de", "-debug"})
	require.NoError(t, err)

	assert.Equal(t, DirectionUnwrap, cfg.Direction)
	assert.Equal(t, "0.5", cfg.Amount)
	assert.Equal(t, int64(137), cfg.ChainID)
	assert.Equal(t, language.German, cfg.Language)
	assert.True(t, cfg.Debug)
}

func TestGet_InvalidFlags(t *testing.T) {
	cases := [][]string{
		{"-direction", "swap"},
		{"-amount", "one"},
		{"-platform", "binance"},
		{"-platform", "ethereum"},
		{"-account", "nope"},
		{"-simbalance", "-1"},
		{"-chainid", "0"},
		{"-lang", "not a language tag"},
	}
	for _, args := range cases {
		_, err := Get(args)
		assert.Error(t, err, "%v", args)
	}
}

func TestGet_Yaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
platform: ethereum
rpc_url: https://rpc.example.org
private_key_env: MY_KEY
direction: wrap
amount: "1.25"
state_dir: ""
history_dir: /tmp/history
timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Get([]string{"-config", path})
	require.NoError(t, err)

	assert.Equal(t, PlatformEthereum, cfg.Platform)
	assert.Equal(t, "https://rpc.example.org", cfg.RPCURL)
	assert.Equal(t, "MY_KEY", cfg.PrivateKeyEnv)
	assert.Equal(t, "1.25", cfg.Amount)
	assert.Equal(t, "", cfg.StateDir)
	assert.Equal(t, "/tmp/history", cfg.HistoryDir)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestGet_YamlMissingFile(t *testing.T) {
	_, err := Get([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
