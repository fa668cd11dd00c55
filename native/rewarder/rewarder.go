package rewarder

import (
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/imrtlfarm/Reliquary/core/events"
	"github.com/imrtlfarm/Reliquary/observability/metrics"
)

// State describes the functionality the rewarder needs from the surrounding
// state implementation.
type State interface {
	RewarderLastDeposit(positionID uint64) (uint64, error)
	SetRewarderLastDeposit(positionID uint64, ts uint64) error
	ClearRewarderLastDeposit(positionID uint64) error
	Transfer(from, to []byte, symbol string, amount *big.Int) error
}

// OwnershipChecker is the slice of the position ledger the rewarder consults
// when a bonus is claimed directly. The rewarder performs no ownership
// bookkeeping itself.
type OwnershipChecker interface {
	IsApprovedOrOwner(addr [20]byte, positionID uint64) (bool, error)
}

// Engine implements the deposit bonus rewarder: a proportional reward stream
// scaled from externally realized base rewards, plus a one-shot bonus paid
// when a deposit follows a sufficiently long quiet period on the same
// position.
type Engine struct {
	cfg     Config
	state   State
	ledger  OwnershipChecker
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a rewarder engine bound to the provided state backend.
// The configuration is validated once here; violations fail construction.
func NewEngine(cfg Config, st State) (*Engine, error) {
	if st == nil {
		return nil, errNilState
	}
	cfg = cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:     cfg,
		state:   st,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg.normalize()
}

// SetOwnership configures the position ledger consulted by ClaimDepositBonus.
func (e *Engine) SetOwnership(ledger OwnershipChecker) { e.ledger = ledger }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests to
// provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(payload events.Payload) {
	if e == nil || e.emitter == nil || payload == nil {
		return
	}
	e.emitter.Emit(payload)
}

func (e *Engine) now() uint64 {
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) requireAuthorized(caller [20]byte) error {
	if caller != e.cfg.AuthorizedCaller {
		return ErrUnauthorized
	}
	return nil
}

func cloneAmount(v *big.Int) (*big.Int, error) {
	if v == nil {
		return big.NewInt(0), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("rewarder: negative amount")
	}
	return new(big.Int).Set(v), nil
}

// restoreAnchor writes the prior window anchor back after a failed payout. A
// failed restore leaves the window half-unwound; the error is logged so
// operators can reconcile the position.
func (e *Engine) restoreAnchor(positionID uint64, previous uint64) {
	if err := e.state.SetRewarderLastDeposit(positionID, previous); err != nil {
		slog.Error("failed to restore bonus window anchor",
			"position", positionID, "anchor", previous, "error", err)
	}
}

// bonusEligible implements the shared claim rule: the bonus fires iff a
// window is open (anchor != 0) and at least the cadence has elapsed. Equality
// at the boundary qualifies.
func (e *Engine) bonusEligible(anchor, now uint64) bool {
	return anchor != 0 && now >= anchor && now-anchor >= e.cfg.Cadence
}

// payDepositBonus transfers the configured bonus from the pool. The caller
// has already written the position's new anchor state, so the transfer never
// races a stale read.
func (e *Engine) payDepositBonus(positionID uint64, anchor, now uint64, recipient [20]byte) error {
	if err := e.state.Transfer(e.cfg.Pool[:], recipient[:], e.cfg.RewardSymbol, e.cfg.DepositBonus); err != nil {
		return err
	}
	metrics.Rewarder().ObserveBonusPaid()
	e.emit(events.BonusPaid{
		Position:  positionID,
		Recipient: recipient,
		Amount:    new(big.Int).Set(e.cfg.DepositBonus),
		Anchor:    anchor,
		PaidAt:    now,
	})
	return nil
}

// OnReward is invoked by the authorized ledger when a position's accrued base
// reward is realized. It scales the base amount by the configured multiplier
// and pays the result to the recipient. No per-position state is touched.
func (e *Engine) OnReward(caller [20]byte, positionID uint64, baseReward *big.Int, recipient [20]byte) error {
	if err := e.requireAuthorized(caller); err != nil {
		return err
	}
	base, err := cloneAmount(baseReward)
	if err != nil {
		return err
	}
	if e.cfg.RewardMultiplierBps == 0 {
		return nil
	}
	pending := new(big.Int).Mul(base, new(big.Int).SetUint64(e.cfg.RewardMultiplierBps))
	pending.Quo(pending, big.NewInt(BpsDenominator))
	if err := e.state.Transfer(e.cfg.Pool[:], recipient[:], e.cfg.RewardSymbol, pending); err != nil {
		return err
	}
	metrics.Rewarder().ObserveRewardPaid()
	e.emit(events.RewardPaid{
		Position:      positionID,
		Recipient:     recipient,
		Base:          base,
		Paid:          pending,
		MultiplierBps: e.cfg.RewardMultiplierBps,
	})
	return nil
}

// OnDeposit is invoked by the authorized ledger immediately after new funds
// enter a position. Deposits below the minimum never update eligibility
// state. A qualifying deposit overwrites the window anchor with the current
// time and settles the bonus rule against the prior anchor.
func (e *Engine) OnDeposit(caller [20]byte, positionID uint64, amount *big.Int, recipient [20]byte) error {
	if err := e.requireAuthorized(caller); err != nil {
		return err
	}
	amt, err := cloneAmount(amount)
	if err != nil {
		return err
	}
	if amt.Cmp(e.cfg.MinimumDeposit) < 0 {
		return nil
	}
	previous, err := e.state.RewarderLastDeposit(positionID)
	if err != nil {
		return err
	}
	now := e.now()
	if err := e.state.SetRewarderLastDeposit(positionID, now); err != nil {
		return err
	}
	e.emit(events.WindowOpened{Position: positionID, Amount: amt, OpenedAt: now})
	if !e.bonusEligible(previous, now) {
		return nil
	}
	if err := e.payDepositBonus(positionID, previous, now, recipient); err != nil {
		// Put the prior anchor back so no partial state survives.
		e.restoreAnchor(positionID, previous)
		return err
	}
	return nil
}

// OnWithdraw is invoked by the authorized ledger when funds leave a position.
// The withdrawal amount is part of the interface contract but unused here.
// Any withdrawal closes the bonus window and settles the claim rule.
func (e *Engine) OnWithdraw(caller [20]byte, positionID uint64, amount *big.Int, recipient [20]byte) error {
	if err := e.requireAuthorized(caller); err != nil {
		return err
	}
	_ = amount
	previous, err := e.state.RewarderLastDeposit(positionID)
	if err != nil {
		return err
	}
	if err := e.state.ClearRewarderLastDeposit(positionID); err != nil {
		return err
	}
	now := e.now()
	if !e.bonusEligible(previous, now) {
		return nil
	}
	if err := e.payDepositBonus(positionID, previous, now, recipient); err != nil {
		e.restoreAnchor(positionID, previous)
		return err
	}
	return nil
}

// ClaimDepositBonus lets a position's owner or approved delegate collect a
// matured bonus without touching the underlying position. Unlike the ledger
// hooks, an ineligible claim is reported as an explicit error so the user
// gets feedback.
func (e *Engine) ClaimDepositBonus(caller [20]byte, positionID uint64, recipient [20]byte) error {
	if e.ledger == nil {
		return errNilLedger
	}
	ok, err := e.ledger.IsApprovedOrOwner(caller, positionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	previous, err := e.state.RewarderLastDeposit(positionID)
	if err != nil {
		return err
	}
	now := e.now()
	if !e.bonusEligible(previous, now) {
		metrics.Rewarder().ObserveClaimRejected()
		return ErrNothingToClaim
	}
	if err := e.state.ClearRewarderLastDeposit(positionID); err != nil {
		return err
	}
	if err := e.payDepositBonus(positionID, previous, now, recipient); err != nil {
		e.restoreAnchor(positionID, previous)
		return err
	}
	return nil
}

// PendingReward is one entry of a pending-rewards preview. The slice shape
// leaves room for multiple reward units; this rewarder always reports exactly
// one.
type PendingReward struct {
	Symbol string
	Amount *big.Int
}

// PendingRewards previews the payout a realized base reward would produce for
// the position right now, including a matured deposit bonus. It never mutates
// state and never transfers tokens.
func (e *Engine) PendingRewards(positionID uint64, baseReward *big.Int) ([]PendingReward, error) {
	base, err := cloneAmount(baseReward)
	if err != nil {
		return nil, err
	}
	amount := big.NewInt(0)
	if e.cfg.RewardMultiplierBps != 0 {
		amount.Mul(base, new(big.Int).SetUint64(e.cfg.RewardMultiplierBps))
		amount.Quo(amount, big.NewInt(BpsDenominator))
	}
	anchor, err := e.state.RewarderLastDeposit(positionID)
	if err != nil {
		return nil, err
	}
	if e.bonusEligible(anchor, e.now()) {
		amount.Add(amount, e.cfg.DepositBonus)
	}
	return []PendingReward{{Symbol: e.cfg.RewardSymbol, Amount: amount}}, nil
}
