package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/imrtlfarm/Reliquary/crypto"
	"github.com/imrtlfarm/Reliquary/native/rewarder"
)

// Config is the on-disk configuration for reliquaryd.
type Config struct {
	RPCAddress string `toml:"RPCAddress"`
	OpsAddress string `toml:"OpsAddress"`
	DataDir    string `toml:"DataDir"`

	StakeSymbol  string `toml:"StakeSymbol"`
	RewardSymbol string `toml:"RewardSymbol"`

	PoolAddress   string `toml:"PoolAddress"`
	LedgerAddress string `toml:"LedgerAddress"`

	RewardMultiplierBps uint64 `toml:"RewardMultiplierBps"`
	DepositBonusWei     string `toml:"DepositBonusWei"`
	MinimumDepositWei   string `toml:"MinimumDepositWei"`
	CadenceSeconds      uint64 `toml:"CadenceSeconds"`

	Telemetry Telemetry `toml:"Telemetry"`
}

// Telemetry holds the optional OTLP exporter settings.
type Telemetry struct {
	Endpoint    string `toml:"Endpoint"`
	Environment string `toml:"Environment"`
	Insecure    bool   `toml:"Insecure"`
	Metrics     bool   `toml:"Metrics"`
	Traces      bool   `toml:"Traces"`
}

func defaultConfig() *Config {
	return &Config{
		RPCAddress:          "127.0.0.1:8645",
		OpsAddress:          "127.0.0.1:9645",
		DataDir:             "./data",
		StakeSymbol:         "RELIC",
		RewardSymbol:        "RLQ",
		RewardMultiplierBps: 5000,
		DepositBonusWei:     "0",
		MinimumDepositWei:   "1",
		CadenceSeconds:      rewarder.MinCadenceSeconds,
	}
}

// Load reads the configuration from the given path. A missing file is
// populated with defaults and written back so operators have a template to
// edit.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := defaultConfig()
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseAmount(field, raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("config: %s is not a base-10 integer: %q", field, raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("config: %s must not be negative", field)
	}
	return amount, nil
}

func parseAddress(field, raw string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(raw))
	if err != nil {
		return out, fmt.Errorf("config: invalid %s: %w", field, err)
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

// PoolAddressBytes decodes the configured pool address.
func (c *Config) PoolAddressBytes() ([20]byte, error) {
	return parseAddress("PoolAddress", c.PoolAddress)
}

// LedgerAddressBytes decodes the configured ledger module address.
func (c *Config) LedgerAddressBytes() ([20]byte, error) {
	return parseAddress("LedgerAddress", c.LedgerAddress)
}

// RewarderConfig maps the on-disk settings onto the rewarder configuration.
// The rewarder constructor re-validates the invariants; Validate here surfaces
// them at startup with file-level context.
func (c *Config) RewarderConfig() (rewarder.Config, error) {
	bonus, err := parseAmount("DepositBonusWei", c.DepositBonusWei)
	if err != nil {
		return rewarder.Config{}, err
	}
	minimum, err := parseAmount("MinimumDepositWei", c.MinimumDepositWei)
	if err != nil {
		return rewarder.Config{}, err
	}
	pool, err := c.PoolAddressBytes()
	if err != nil {
		return rewarder.Config{}, err
	}
	ledger, err := c.LedgerAddressBytes()
	if err != nil {
		return rewarder.Config{}, err
	}
	return rewarder.Config{
		RewardMultiplierBps: c.RewardMultiplierBps,
		DepositBonus:        bonus,
		MinimumDeposit:      minimum,
		Cadence:             c.CadenceSeconds,
		RewardSymbol:        c.RewardSymbol,
		Pool:                pool,
		AuthorizedCaller:    ledger,
	}, nil
}

// Validate checks the configuration before the service starts.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress must be set")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must be set")
	}
	if strings.TrimSpace(c.StakeSymbol) == "" {
		return fmt.Errorf("config: StakeSymbol must be set")
	}
	if strings.TrimSpace(c.RewardSymbol) == "" {
		return fmt.Errorf("config: RewardSymbol must be set")
	}
	rcfg, err := c.RewarderConfig()
	if err != nil {
		return err
	}
	return rcfg.Validate()
}
