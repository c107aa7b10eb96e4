package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type ChainConfig struct {
	ChainID string
	RPCUrl  string
	// AssetRegistryPath points at the JSON asset registry the chain model is
	// loaded from.
	AssetRegistryPath string
	RequestTimeout    time.Duration
	RefreshInterval   time.Duration
}

func (cc *ChainConfig) Key() string {
	return CHAIN_CONFIG_KEY
}

func (cc *ChainConfig) Load() error {
	cc.ChainID = getEnvOrDefault("CHAIN_ID", "hydration")
	cc.RPCUrl = os.Getenv("RPC_URL")
	cc.AssetRegistryPath = getEnvOrDefault("ASSET_REGISTRY_PATH", "assets.json")
	cc.RequestTimeout = getEnvDuration("RPC_TIMEOUT_SECONDS", 10*time.Second)
	cc.RefreshInterval = getEnvDuration("STATE_REFRESH_SECONDS", 12*time.Second)
	return nil
}

func (cc *ChainConfig) Validate() error {
	if cc.ChainID == "" || cc.RPCUrl == "" || cc.AssetRegistryPath == "" {
		return errors.New("invalid chain config")
	}
	if cc.RequestTimeout <= 0 || cc.RefreshInterval <= 0 {
		return errors.New("invalid chain config timings")
	}
	return nil
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
