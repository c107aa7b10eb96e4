package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type EngineConfig struct {
	// QuoteTimeout bounds a single quote request across all candidate routes.
	QuoteTimeout time.Duration
	// DefaultSlippageBps is applied when a swap request carries no slippage.
	DefaultSlippageBps uint32
	// ReferralCode is linked to first-time payers before their first swap.
	// Empty disables referral linking.
	ReferralCode string
}

func (ec *EngineConfig) Key() string {
	return ENGINE_CONFIG_KEY
}

func (ec *EngineConfig) Load() error {
	ec.QuoteTimeout = getEnvDuration("QUOTE_TIMEOUT_SECONDS", 5*time.Second)
	ec.DefaultSlippageBps = getEnvUint32("DEFAULT_SLIPPAGE_BPS", 50)
	ec.ReferralCode = os.Getenv("REFERRAL_CODE")
	return nil
}

func (ec *EngineConfig) Validate() error {
	if ec.QuoteTimeout <= 0 {
		return errors.New("invalid engine config")
	}
	if ec.DefaultSlippageBps > 10_000 {
		return errors.New("default slippage above 100%")
	}
	return nil
}

func getEnvUint32(key string, fallback uint32) uint32 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return uint32(parsed)
}
