package positions

import (
	"log/slog"
	"math/big"
	"time"

	"github.com/imrtlfarm/Reliquary/core/events"
	"github.com/imrtlfarm/Reliquary/core/state"
)

// LedgerState describes the functionality the ledger needs from the
// surrounding state implementation.
type LedgerState interface {
	PositionPut(p *state.Position) error
	PositionGet(id uint64) (*state.Position, bool, error)
	PositionDelete(id uint64) error
	PositionNextID() (uint64, error)
	Transfer(from, to []byte, symbol string, amount *big.Int) error
}

// Rewarder is the notification surface the ledger drives. The ledger address
// is passed as the caller on every hook; the rewarder verifies it against its
// configured authorized caller.
type Rewarder interface {
	OnReward(caller [20]byte, positionID uint64, baseReward *big.Int, recipient [20]byte) error
	OnDeposit(caller [20]byte, positionID uint64, amount *big.Int, recipient [20]byte) error
	OnWithdraw(caller [20]byte, positionID uint64, amount *big.Int, recipient [20]byte) error
}

// Ledger owns position records: minting, burning, ownership and approval,
// and the staked amounts. It is the sole authorized caller of the rewarder's
// mutating hooks. Base reward amounts are computed upstream and passed
// through Harvest untouched.
type Ledger struct {
	state       LedgerState
	rewarder    Rewarder
	emitter     events.Emitter
	nowFn       func() int64
	stakeSymbol string
	addr        [20]byte
}

// NewLedger creates a position ledger. addr is the ledger's module address:
// it identifies the ledger towards the rewarder and holds the staked funds.
func NewLedger(stakeSymbol string, addr [20]byte, st LedgerState) (*Ledger, error) {
	if st == nil {
		return nil, errNilState
	}
	return &Ledger{
		state:       st,
		emitter:     events.NoopEmitter{},
		nowFn:       func() int64 { return time.Now().Unix() },
		stakeSymbol: stakeSymbol,
		addr:        addr,
	}, nil
}

// Address returns the ledger's module address.
func (l *Ledger) Address() [20]byte { return l.addr }

// SetRewarder wires the rewarder notified on deposits, withdrawals and
// harvests.
func (l *Ledger) SetRewarder(r Rewarder) { l.rewarder = r }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetNowFunc overrides the time source, for deterministic tests.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

func (l *Ledger) emit(payload events.Payload) {
	if l == nil || l.emitter == nil || payload == nil {
		return
	}
	l.emitter.Emit(payload)
}

func (l *Ledger) now() uint64 {
	ts := l.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// unwindPosition and unwindTransfer back out a partially applied operation. A
// failed compensating write leaves the ledger half-unwound; the error is
// logged so operators can reconcile the position.
func (l *Ledger) unwindPosition(pos *state.Position) {
	if err := l.state.PositionPut(pos); err != nil {
		slog.Error("failed to restore position record",
			"position", pos.ID, "error", err)
	}
}

func (l *Ledger) unwindTransfer(id uint64, from, to [20]byte, amount *big.Int) {
	if err := l.state.Transfer(from[:], to[:], l.stakeSymbol, amount); err != nil {
		slog.Error("failed to reverse stake transfer",
			"position", id, "amount", amount.String(), "error", err)
	}
}

func (l *Ledger) load(id uint64) (*state.Position, error) {
	pos, ok, err := l.state.PositionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return pos, nil
}

// Mint creates a new, empty position owned by owner and returns its id.
func (l *Ledger) Mint(owner [20]byte) (uint64, error) {
	if owner == ([20]byte{}) {
		return 0, ErrUnauthorized
	}
	id, err := l.state.PositionNextID()
	if err != nil {
		return 0, err
	}
	pos := &state.Position{
		ID:        id,
		Owner:     owner,
		Amount:    big.NewInt(0),
		CreatedAt: l.now(),
	}
	if err := l.state.PositionPut(pos); err != nil {
		return 0, err
	}
	l.emit(events.PositionMinted{Position: id, Owner: owner})
	return id, nil
}

// Burn destroys an emptied position. Only the owner may burn.
func (l *Ledger) Burn(caller [20]byte, id uint64) error {
	pos, err := l.load(id)
	if err != nil {
		return err
	}
	if pos.Owner != caller {
		return ErrUnauthorized
	}
	if pos.Amount.Sign() != 0 {
		return ErrPositionNotEmpty
	}
	if err := l.state.PositionDelete(id); err != nil {
		return err
	}
	l.emit(events.PositionBurned{Position: id, Owner: pos.Owner})
	return nil
}

// Approve grants operator rights over the position. Only the owner may
// approve; the zero address clears the approval.
func (l *Ledger) Approve(caller [20]byte, id uint64, operator [20]byte) error {
	pos, err := l.load(id)
	if err != nil {
		return err
	}
	if pos.Owner != caller {
		return ErrUnauthorized
	}
	pos.Approved = operator
	return l.state.PositionPut(pos)
}

// IsApprovedOrOwner reports whether addr may act on the position.
func (l *Ledger) IsApprovedOrOwner(addr [20]byte, id uint64) (bool, error) {
	pos, err := l.load(id)
	if err != nil {
		return false, err
	}
	if addr == ([20]byte{}) {
		return false, nil
	}
	return pos.Owner == addr || pos.Approved == addr, nil
}

// Deposit moves amount of the staking token from the caller into the ledger
// vault, bumps the position, and notifies the rewarder. The rewarder's bonus
// recipient is the position owner.
func (l *Ledger) Deposit(caller [20]byte, id uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pos, err := l.load(id)
	if err != nil {
		return err
	}
	if pos.Owner != caller && pos.Approved != caller {
		return ErrUnauthorized
	}
	amt := new(big.Int).Set(amount)
	if err := l.state.Transfer(caller[:], l.addr[:], l.stakeSymbol, amt); err != nil {
		return err
	}
	prev := new(big.Int).Set(pos.Amount)
	pos.Amount = new(big.Int).Add(pos.Amount, amt)
	if err := l.state.PositionPut(pos); err != nil {
		l.unwindTransfer(id, l.addr, caller, amt)
		return err
	}
	if l.rewarder != nil {
		if err := l.rewarder.OnDeposit(l.addr, id, amt, pos.Owner); err != nil {
			// Unwind the deposit so the call leaves no partial effects.
			pos.Amount = prev
			l.unwindPosition(pos)
			l.unwindTransfer(id, l.addr, caller, amt)
			return err
		}
	}
	l.emit(events.PositionDeposited{Position: id, Caller: caller, Amount: amt, NewTotal: pos.Amount})
	return nil
}

// Withdraw moves amount of the staking token back to the caller and notifies
// the rewarder, which closes the position's bonus window.
func (l *Ledger) Withdraw(caller [20]byte, id uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pos, err := l.load(id)
	if err != nil {
		return err
	}
	if pos.Owner != caller && pos.Approved != caller {
		return ErrUnauthorized
	}
	if pos.Amount.Cmp(amount) < 0 {
		return ErrInvalidAmount
	}
	amt := new(big.Int).Set(amount)
	prev := new(big.Int).Set(pos.Amount)
	pos.Amount = new(big.Int).Sub(pos.Amount, amt)
	if err := l.state.PositionPut(pos); err != nil {
		return err
	}
	if err := l.state.Transfer(l.addr[:], caller[:], l.stakeSymbol, amt); err != nil {
		pos.Amount = prev
		l.unwindPosition(pos)
		return err
	}
	if l.rewarder != nil {
		if err := l.rewarder.OnWithdraw(l.addr, id, amt, pos.Owner); err != nil {
			pos.Amount = prev
			l.unwindPosition(pos)
			l.unwindTransfer(id, caller, l.addr, amt)
			return err
		}
	}
	l.emit(events.PositionWithdrawn{Position: id, Caller: caller, Amount: amt, NewTotal: pos.Amount})
	return nil
}

// Harvest realizes a position's accrued base reward. The amount is computed
// by the ledger's caller; the rewarder scales it and pays the caller.
func (l *Ledger) Harvest(caller [20]byte, id uint64, baseReward *big.Int) error {
	pos, err := l.load(id)
	if err != nil {
		return err
	}
	if pos.Owner != caller && pos.Approved != caller {
		return ErrUnauthorized
	}
	if l.rewarder != nil {
		if err := l.rewarder.OnReward(l.addr, id, baseReward, caller); err != nil {
			return err
		}
	}
	l.emit(events.PositionHarvested{Position: id, Caller: caller, BaseReward: baseReward})
	return nil
}

// Get returns the stored position record.
func (l *Ledger) Get(id uint64) (*state.Position, error) {
	return l.load(id)
}
