package rewarder

import (
	"fmt"
	"math/big"
	"strings"
)

const (
	// BpsDenominator defines the scaling factor used for basis point math when
	// computing proportional rewards.
	BpsDenominator = 10_000
	// MinCadenceSeconds is the smallest permitted quiet period between
	// qualifying deposits. Shorter cadences would allow spurious frequent
	// bonus grants.
	MinCadenceSeconds = 86_400
)

// Config carries the immutable parameters of a rewarder instance.
type Config struct {
	// RewardMultiplierBps scales externally supplied base reward amounts,
	// expressed in parts per 10000. Zero disables the proportional stream.
	RewardMultiplierBps uint64
	// DepositBonus is the reward-unit amount paid when the time gate fires.
	DepositBonus *big.Int
	// MinimumDeposit is the smallest deposit that updates bonus eligibility.
	MinimumDeposit *big.Int
	// Cadence is the quiet period, in seconds, that must separate two
	// deposits for the gate to trigger.
	Cadence uint64
	// RewardSymbol identifies the token used for all payouts.
	RewardSymbol string
	// Pool is the account all payouts are debited from.
	Pool [20]byte
	// AuthorizedCaller is the only address entitled to invoke the mutating
	// notification hooks.
	AuthorizedCaller [20]byte
}

func (c Config) normalize() Config {
	c.RewardSymbol = strings.ToUpper(strings.TrimSpace(c.RewardSymbol))
	if c.DepositBonus == nil {
		c.DepositBonus = big.NewInt(0)
	} else {
		c.DepositBonus = new(big.Int).Set(c.DepositBonus)
	}
	if c.MinimumDeposit == nil {
		c.MinimumDeposit = big.NewInt(0)
	} else {
		c.MinimumDeposit = new(big.Int).Set(c.MinimumDeposit)
	}
	return c
}

// Validate checks the construction invariants. A zero minimum would let every
// deposit, including zero-amount ones, update the eligibility timestamp.
func (c Config) Validate() error {
	if c.MinimumDeposit == nil || c.MinimumDeposit.Sign() <= 0 {
		return fmt.Errorf("%w: minimum deposit must be positive", ErrInvalidConfiguration)
	}
	if c.Cadence < MinCadenceSeconds {
		return fmt.Errorf("%w: cadence must be at least %d seconds", ErrInvalidConfiguration, MinCadenceSeconds)
	}
	if c.DepositBonus != nil && c.DepositBonus.Sign() < 0 {
		return fmt.Errorf("%w: deposit bonus must not be negative", ErrInvalidConfiguration)
	}
	if strings.TrimSpace(c.RewardSymbol) == "" {
		return fmt.Errorf("%w: reward symbol must not be empty", ErrInvalidConfiguration)
	}
	if c.Pool == ([20]byte{}) {
		return fmt.Errorf("%w: pool address must be set", ErrInvalidConfiguration)
	}
	if c.AuthorizedCaller == ([20]byte{}) {
		return fmt.Errorf("%w: authorized caller must be set", ErrInvalidConfiguration)
	}
	return nil
}
