package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(EnvMap{"NODE_URL": "http://localhost:8080/v1"})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/v1", cfg.NodeURL)
	assert.Equal(t, 10*time.Second, cfg.NodeTimeout)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, "sqlite", cfg.BlockDBDriver)
	assert.Equal(t, "coinbridge.db", cfg.BlockDBDSN)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Equal(t, "coinbridge-queries", cfg.KafkaTopicPrefix)
}

func TestLoadFullEnvironment(t *testing.T) {
	cfg, err := Load(EnvMap{
		"NODE_URL":        "https://node.example/v1",
		"NODE_TIMEOUT":    "30s",
		"HTTP_ADDR":       ":9090",
		"NETWORK":         " testnet ",
		"BLOCK_DB_DRIVER": "MySQL",
		"BLOCK_DB_DSN":    "user:pw@tcp(db:3306)/blocks",
		"REDIS_ADDR":      "redis:6379",
		"KAFKA_BROKERS":   "broker-1:9092, broker-2:9092,,",
		"LOG_MAX_SIZE_MB": "128",
	})
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.NodeTimeout)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "testnet", cfg.Network)
	assert.Equal(t, "mysql", cfg.BlockDBDriver)
	assert.Equal(t, "user:pw@tcp(db:3306)/blocks", cfg.BlockDBDSN)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 128, cfg.LogMaxSizeMB)
}

func TestLoadRejectsBadInput(t *testing.T) {
	_, err := Load(EnvMap{})
	assert.Error(t, err, "NODE_URL must be required")

	_, err = Load(EnvMap{"NODE_URL": "http://n", "NODE_TIMEOUT": "soon"})
	assert.Error(t, err)

	_, err = Load(EnvMap{"NODE_URL": "http://n", "BLOCK_DB_DRIVER": "postgres"})
	assert.Error(t, err)

	_, err = Load(EnvMap{"NODE_URL": "http://n", "LOG_MAX_BACKUPS": "many"})
	assert.Error(t, err)
}

func TestResolveNetworkBuiltin(t *testing.T) {
	network, err := ResolveNetwork(Config{Network: "testnet"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), network.ChainID)
	assert.Equal(t, "0x1", network.SystemAddress)
	assert.Equal(t, "APT", network.Native.Symbol)

	_, err = ResolveNetwork(Config{Network: "devnet"})
	assert.Error(t, err)
}

func TestResolveNetworkFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
networks:
  - name: localnet
    blockchain: aptos
    chain_id: 4
    system_address: "0x1"
    native:
      coin_type: "0x1::aptos_coin::AptosCoin"
      symbol: APT
      decimals: 8
`), 0o600))

	network, err := ResolveNetwork(Config{Network: "localnet", NetworksFile: path})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), network.ChainID)

	// A file replaces the built-in registry entirely.
	_, err = ResolveNetwork(Config{Network: "mainnet", NetworksFile: path})
	assert.Error(t, err)
}

func TestResolveNetworkRejectsIncompleteEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
networks:
  - name: broken
    blockchain: aptos
    system_address: "0x1"
`), 0o600))

	_, err := ResolveNetwork(Config{Network: "broken", NetworksFile: path})
	assert.Error(t, err)
}
