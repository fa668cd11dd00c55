package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/imrtlfarm/Reliquary/crypto"
	"github.com/imrtlfarm/Reliquary/native/rewarder"
)

func testBech32(b byte) string {
	var raw [20]byte
	raw[19] = b
	return crypto.MustNewAddress(crypto.RLQPrefix, raw[:]).String()
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.PoolAddress = testBech32(1)
	cfg.LedgerAddress = testBech32(2)
	cfg.DepositBonusWei = "250"
	cfg.MinimumDepositWei = "1000"
	return cfg
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reliquary.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RewardSymbol != "RLQ" {
		t.Fatalf("expected default reward symbol, got %s", cfg.RewardSymbol)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default file to be written: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.CadenceSeconds != cfg.CadenceSeconds {
		t.Fatalf("round trip mismatch: %d vs %d", reloaded.CadenceSeconds, cfg.CadenceSeconds)
	}
}

func TestValidateEnforcesRewarderInvariants(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg = validConfig()
	cfg.MinimumDepositWei = "0"
	if err := cfg.Validate(); !errors.Is(err, rewarder.ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration for zero minimum, got %v", err)
	}

	cfg = validConfig()
	cfg.CadenceSeconds = 3600
	if err := cfg.Validate(); !errors.Is(err, rewarder.ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration for short cadence, got %v", err)
	}

	cfg = validConfig()
	cfg.PoolAddress = "not-an-address"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for malformed pool address")
	}

	cfg = validConfig()
	cfg.DepositBonusWei = "12x"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for malformed bonus amount")
	}
}
