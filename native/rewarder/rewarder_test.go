package rewarder

import (
	"bytes"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/imrtlfarm/Reliquary/core/state"
	"github.com/imrtlfarm/Reliquary/storage"
)

const testSymbol = "RLQ"

func testAddr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

var (
	poolAddr   = testAddr(0x01)
	ledgerAddr = testAddr(0x02)
	userAddr   = testAddr(0x03)
	otherAddr  = testAddr(0x04)
)

type testClock struct {
	now int64
}

func (c *testClock) fn() func() int64 {
	return func() int64 { return c.now }
}

type ownershipStub struct {
	ok  bool
	err error
}

func (s ownershipStub) IsApprovedOrOwner(addr [20]byte, positionID uint64) (bool, error) {
	return s.ok, s.err
}

func testConfig() Config {
	return Config{
		RewardMultiplierBps: 5000,
		DepositBonus:        big.NewInt(250),
		MinimumDeposit:      big.NewInt(1000),
		Cadence:             86400,
		RewardSymbol:        testSymbol,
		Pool:                poolAddr,
		AuthorizedCaller:    ledgerAddr,
	}
}

func newTestEngine(t *testing.T, cfg Config, poolBalance int64) (*Engine, *state.Manager, *testClock) {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	if err := mgr.RegisterToken(testSymbol, "Reliquary Reward", 18); err != nil {
		t.Fatalf("register token: %v", err)
	}
	if err := mgr.SetBalance(poolAddr[:], testSymbol, big.NewInt(poolBalance)); err != nil {
		t.Fatalf("fund pool: %v", err)
	}
	engine, err := NewEngine(cfg, mgr)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	clock := &testClock{now: 1000}
	engine.SetNowFunc(clock.fn())
	return engine, mgr, clock
}

func balance(t *testing.T, mgr *state.Manager, addr [20]byte) *big.Int {
	t.Helper()
	bal, err := mgr.Balance(addr[:], testSymbol)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return bal
}

func anchor(t *testing.T, mgr *state.Manager, id uint64) uint64 {
	t.Helper()
	ts, err := mgr.RewarderLastDeposit(id)
	if err != nil {
		t.Fatalf("anchor: %v", err)
	}
	return ts
}

func TestConfigValidation(t *testing.T) {
	mgr := state.NewManager(storage.NewMemDB())

	cfg := testConfig()
	cfg.MinimumDeposit = big.NewInt(0)
	if _, err := NewEngine(cfg, mgr); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration for zero minimum, got %v", err)
	}

	cfg = testConfig()
	cfg.Cadence = 86399
	if _, err := NewEngine(cfg, mgr); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration for short cadence, got %v", err)
	}

	cfg = testConfig()
	cfg.RewardSymbol = "  "
	if _, err := NewEngine(cfg, mgr); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration for empty symbol, got %v", err)
	}

	if _, err := NewEngine(testConfig(), mgr); err != nil {
		t.Fatalf("expected valid configuration to pass, got %v", err)
	}
}

func TestOnRewardProportional(t *testing.T) {
	engine, mgr, _ := newTestEngine(t, testConfig(), 10_000)
	if err := engine.OnReward(ledgerAddr, 1, big.NewInt(100), userAddr); err != nil {
		t.Fatalf("on reward: %v", err)
	}
	if got := balance(t, mgr, userAddr); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("expected payout 50, got %s", got)
	}
	if got := balance(t, mgr, poolAddr); got.Cmp(big.NewInt(9950)) != 0 {
		t.Fatalf("expected pool 9950, got %s", got)
	}
}

func TestOnRewardZeroMultiplierSkipsTransfer(t *testing.T) {
	cfg := testConfig()
	cfg.RewardMultiplierBps = 0
	engine, mgr, _ := newTestEngine(t, cfg, 10_000)
	if err := engine.OnReward(ledgerAddr, 1, big.NewInt(5000), userAddr); err != nil {
		t.Fatalf("on reward: %v", err)
	}
	if got := balance(t, mgr, userAddr); got.Sign() != 0 {
		t.Fatalf("expected no payout, got %s", got)
	}
	if got := balance(t, mgr, poolAddr); got.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("expected untouched pool, got %s", got)
	}
}

func TestOnRewardRoundsDown(t *testing.T) {
	engine, mgr, _ := newTestEngine(t, testConfig(), 10_000)
	if err := engine.OnReward(ledgerAddr, 1, big.NewInt(3), userAddr); err != nil {
		t.Fatalf("on reward: %v", err)
	}
	if got := balance(t, mgr, userAddr); got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("expected floor(3*5000/10000)=1, got %s", got)
	}
}

func TestOnRewardNegativeBaseFails(t *testing.T) {
	engine, mgr, _ := newTestEngine(t, testConfig(), 10_000)
	if err := engine.OnReward(ledgerAddr, 1, big.NewInt(-1), userAddr); err == nil {
		t.Fatalf("expected error for negative base reward")
	}
	if got := balance(t, mgr, poolAddr); got.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("expected untouched pool, got %s", got)
	}
}

func TestMutatingHooksRejectUnknownCaller(t *testing.T) {
	engine, mgr, _ := newTestEngine(t, testConfig(), 10_000)
	if err := engine.OnReward(otherAddr, 1, big.NewInt(100), userAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized on reward, got %v", err)
	}
	if err := engine.OnDeposit(otherAddr, 1, big.NewInt(5000), userAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized on deposit, got %v", err)
	}
	if err := engine.OnWithdraw(otherAddr, 1, big.NewInt(5000), userAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized on withdraw, got %v", err)
	}
	if got := anchor(t, mgr, 1); got != 0 {
		t.Fatalf("expected untouched anchor, got %d", got)
	}
	if got := balance(t, mgr, poolAddr); got.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("expected untouched pool, got %s", got)
	}
}

func TestOnDepositBelowMinimumIsNoop(t *testing.T) {
	engine, mgr, _ := newTestEngine(t, testConfig(), 10_000)
	if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(999), userAddr); err != nil {
		t.Fatalf("on deposit: %v", err)
	}
	if got := anchor(t, mgr, 7); got != 0 {
		t.Fatalf("expected sentinel anchor, got %d", got)
	}
	if got := balance(t, mgr, userAddr); got.Sign() != 0 {
		t.Fatalf("expected no payout, got %s", got)
	}
}

func TestOnDepositOverwritesAnchor(t *testing.T) {
	engine, mgr, clock := newTestEngine(t, testConfig(), 10_000)
	if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(1000), userAddr); err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	if got := anchor(t, mgr, 7); got != 1000 {
		t.Fatalf("expected anchor 1000, got %d", got)
	}
	clock.now = 5000
	if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(2000), userAddr); err != nil {
		t.Fatalf("second deposit: %v", err)
	}
	if got := anchor(t, mgr, 7); got != 5000 {
		t.Fatalf("expected anchor 5000, got %d", got)
	}
	// Elapsed 4000s is below the cadence, so no bonus was paid.
	if got := balance(t, mgr, userAddr); got.Sign() != 0 {
		t.Fatalf("expected no payout, got %s", got)
	}
}

func TestDepositBonusBoundary(t *testing.T) {
	t.Run("exact cadence fires", func(t *testing.T) {
		engine, mgr, clock := newTestEngine(t, testConfig(), 10_000)
		if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(1000), userAddr); err != nil {
			t.Fatalf("first deposit: %v", err)
		}
		clock.now = 1000 + 86400
		if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(2000), userAddr); err != nil {
			t.Fatalf("second deposit: %v", err)
		}
		if got := balance(t, mgr, userAddr); got.Cmp(big.NewInt(250)) != 0 {
			t.Fatalf("expected bonus 250, got %s", got)
		}
		if got := anchor(t, mgr, 7); got != 1000+86400 {
			t.Fatalf("expected fresh anchor, got %d", got)
		}
	})
	t.Run("one second short does not fire", func(t *testing.T) {
		engine, mgr, clock := newTestEngine(t, testConfig(), 10_000)
		if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(1000), userAddr); err != nil {
			t.Fatalf("first deposit: %v", err)
		}
		clock.now = 1000 + 86399
		if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(2000), userAddr); err != nil {
			t.Fatalf("second deposit: %v", err)
		}
		if got := balance(t, mgr, userAddr); got.Sign() != 0 {
			t.Fatalf("expected no bonus, got %s", got)
		}
	})
}

func TestFirstDepositNeverPaysBonus(t *testing.T) {
	engine, mgr, clock := newTestEngine(t, testConfig(), 10_000)
	clock.now = 1_000_000_000
	if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(1000), userAddr); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := balance(t, mgr, userAddr); got.Sign() != 0 {
		t.Fatalf("sentinel anchor must never qualify, got payout %s", got)
	}
}

func TestOnWithdrawClosesWindow(t *testing.T) {
	engine, mgr, clock := newTestEngine(t, testConfig(), 10_000)
	if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(1000), userAddr); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	clock.now = 1000 + 86400
	// No minimum gate on withdrawals; a dust withdrawal still settles.
	if err := engine.OnWithdraw(ledgerAddr, 7, big.NewInt(1), userAddr); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := balance(t, mgr, userAddr); got.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("expected bonus 250, got %s", got)
	}
	if got := anchor(t, mgr, 7); got != 0 {
		t.Fatalf("expected cleared anchor, got %d", got)
	}
	// The window is gone; a second withdrawal silently claims nothing.
	if err := engine.OnWithdraw(ledgerAddr, 7, big.NewInt(1), userAddr); err != nil {
		t.Fatalf("second withdraw: %v", err)
	}
	if got := balance(t, mgr, userAddr); got.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("expected unchanged payout, got %s", got)
	}
}

func TestClaimDepositBonus(t *testing.T) {
	engine, mgr, clock := newTestEngine(t, testConfig(), 10_000)
	engine.SetOwnership(ownershipStub{ok: true})
	if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(1000), userAddr); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	clock.now = 1000 + 86400
	if err := engine.ClaimDepositBonus(userAddr, 7, userAddr); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got := balance(t, mgr, userAddr); got.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("expected bonus 250, got %s", got)
	}
	if got := anchor(t, mgr, 7); got != 0 {
		t.Fatalf("expected cleared anchor, got %d", got)
	}
	if err := engine.ClaimDepositBonus(userAddr, 7, userAddr); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("expected nothing to claim, got %v", err)
	}
}

func TestClaimBeforeCadenceLeavesWindowOpen(t *testing.T) {
	engine, mgr, clock := newTestEngine(t, testConfig(), 10_000)
	engine.SetOwnership(ownershipStub{ok: true})
	if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(1000), userAddr); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	clock.now = 1000 + 86399
	if err := engine.ClaimDepositBonus(userAddr, 7, userAddr); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("expected nothing to claim, got %v", err)
	}
	// A failed claim leaves the window anchored for a later retry.
	if got := anchor(t, mgr, 7); got != 1000 {
		t.Fatalf("expected anchor 1000, got %d", got)
	}
}

func TestClaimUnauthorizedBeforeEvaluation(t *testing.T) {
	engine, mgr, clock := newTestEngine(t, testConfig(), 10_000)
	engine.SetOwnership(ownershipStub{ok: false})
	if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(1000), userAddr); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	clock.now = 1000 + 86400
	if err := engine.ClaimDepositBonus(otherAddr, 7, otherAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if got := anchor(t, mgr, 7); got != 1000 {
		t.Fatalf("expected untouched anchor, got %d", got)
	}
	if got := balance(t, mgr, otherAddr); got.Sign() != 0 {
		t.Fatalf("expected no payout, got %s", got)
	}
}

func TestPendingRewardsIsPure(t *testing.T) {
	engine, mgr, clock := newTestEngine(t, testConfig(), 10_000)
	if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(1000), userAddr); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	clock.now = 1000 + 86400
	for i := 0; i < 3; i++ {
		pending, err := engine.PendingRewards(7, big.NewInt(100))
		if err != nil {
			t.Fatalf("pending: %v", err)
		}
		if len(pending) != 1 {
			t.Fatalf("expected exactly one reward unit, got %d", len(pending))
		}
		if pending[0].Symbol != testSymbol {
			t.Fatalf("expected symbol %s, got %s", testSymbol, pending[0].Symbol)
		}
		// 50 proportional + 250 matured bonus.
		if pending[0].Amount.Cmp(big.NewInt(300)) != 0 {
			t.Fatalf("expected 300 pending, got %s", pending[0].Amount)
		}
	}
	if got := anchor(t, mgr, 7); got != 1000 {
		t.Fatalf("preview must not mutate anchor, got %d", got)
	}
	if got := balance(t, mgr, poolAddr); got.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("preview must not transfer, pool %s", got)
	}
}

func TestPendingRewardsWithoutOpenWindow(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), 10_000)
	pending, err := engine.PendingRewards(7, big.NewInt(100))
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending[0].Amount.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("expected proportional 50 only, got %s", pending[0].Amount)
	}
}

type faultyAnchorState struct {
	*state.Manager
	failRestore bool
}

func (s *faultyAnchorState) SetRewarderLastDeposit(positionID uint64, ts uint64) error {
	if s.failRestore {
		return errors.New("backend unavailable")
	}
	return s.Manager.SetRewarderLastDeposit(positionID, ts)
}

func TestAnchorRestoreFailureIsReported(t *testing.T) {
	mgr := state.NewManager(storage.NewMemDB())
	if err := mgr.RegisterToken(testSymbol, "Reliquary Reward", 18); err != nil {
		t.Fatalf("register token: %v", err)
	}
	st := &faultyAnchorState{Manager: mgr}
	engine, err := NewEngine(testConfig(), st)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	clock := &testClock{now: 1000}
	engine.SetNowFunc(clock.fn())

	if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(1000), userAddr); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	// The pool was never funded, so the payout fails; the restore write is
	// forced to fail as well.
	st.failRestore = true
	clock.now = 1000 + 86400
	if err := engine.OnWithdraw(ledgerAddr, 7, big.NewInt(1000), userAddr); !errors.Is(err, state.ErrInsufficientBalance) {
		t.Fatalf("expected the payout error to win, got %v", err)
	}
	if !strings.Contains(logs.String(), "failed to restore bonus window anchor") {
		t.Fatalf("expected restore failure to be logged, got %q", logs.String())
	}
}

func TestBonusPayoutFailureRestoresAnchor(t *testing.T) {
	engine, mgr, clock := newTestEngine(t, testConfig(), 0)
	if err := engine.OnDeposit(ledgerAddr, 7, big.NewInt(1000), userAddr); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	clock.now = 1000 + 86400
	if err := engine.OnWithdraw(ledgerAddr, 7, big.NewInt(1000), userAddr); !errors.Is(err, state.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if got := anchor(t, mgr, 7); got != 1000 {
		t.Fatalf("expected restored anchor 1000, got %d", got)
	}
}
