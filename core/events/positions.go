package events

import (
	"math/big"
	"strconv"

	"github.com/imrtlfarm/Reliquary/crypto"
)

const (
	// TypePositionMinted is emitted when a new position is created.
	TypePositionMinted = "positions.minted"
	// TypePositionDeposited is emitted when funds enter a position.
	TypePositionDeposited = "positions.deposited"
	// TypePositionWithdrawn is emitted when funds leave a position.
	TypePositionWithdrawn = "positions.withdrawn"
	// TypePositionHarvested is emitted when accrued rewards are realized.
	TypePositionHarvested = "positions.harvested"
	// TypePositionBurned is emitted when an emptied position is destroyed.
	TypePositionBurned = "positions.burned"
)

// PositionMinted captures a freshly minted position.
type PositionMinted struct {
	Position uint64
	Owner    [20]byte
}

// EventType satisfies the Payload interface.
func (PositionMinted) EventType() string { return TypePositionMinted }

// Event converts the structured payload into a broadcastable event.
func (e PositionMinted) Event() *Event {
	attrs := map[string]string{"position": strconv.FormatUint(e.Position, 10)}
	if !zeroAddress(e.Owner) {
		attrs["owner"] = crypto.MustNewAddress(crypto.RLQPrefix, e.Owner[:]).String()
	}
	return &Event{Type: TypePositionMinted, Attributes: attrs}
}

// PositionDeposited captures funds entering a position.
type PositionDeposited struct {
	Position uint64
	Caller   [20]byte
	Amount   *big.Int
	NewTotal *big.Int
}

// EventType satisfies the Payload interface.
func (PositionDeposited) EventType() string { return TypePositionDeposited }

// Event converts the structured payload into a broadcastable event.
func (e PositionDeposited) Event() *Event {
	attrs := map[string]string{
		"position": strconv.FormatUint(e.Position, 10),
		"amount":   formatAmount(e.Amount),
		"newTotal": formatAmount(e.NewTotal),
	}
	if !zeroAddress(e.Caller) {
		attrs["caller"] = crypto.MustNewAddress(crypto.RLQPrefix, e.Caller[:]).String()
	}
	return &Event{Type: TypePositionDeposited, Attributes: attrs}
}

// PositionWithdrawn captures funds leaving a position.
type PositionWithdrawn struct {
	Position uint64
	Caller   [20]byte
	Amount   *big.Int
	NewTotal *big.Int
}

// EventType satisfies the Payload interface.
func (PositionWithdrawn) EventType() string { return TypePositionWithdrawn }

// Event converts the structured payload into a broadcastable event.
func (e PositionWithdrawn) Event() *Event {
	attrs := map[string]string{
		"position": strconv.FormatUint(e.Position, 10),
		"amount":   formatAmount(e.Amount),
		"newTotal": formatAmount(e.NewTotal),
	}
	if !zeroAddress(e.Caller) {
		attrs["caller"] = crypto.MustNewAddress(crypto.RLQPrefix, e.Caller[:]).String()
	}
	return &Event{Type: TypePositionWithdrawn, Attributes: attrs}
}

// PositionHarvested captures a realized base reward for a position.
type PositionHarvested struct {
	Position   uint64
	Caller     [20]byte
	BaseReward *big.Int
}

// EventType satisfies the Payload interface.
func (PositionHarvested) EventType() string { return TypePositionHarvested }

// Event converts the structured payload into a broadcastable event.
func (e PositionHarvested) Event() *Event {
	attrs := map[string]string{
		"position":   strconv.FormatUint(e.Position, 10),
		"baseReward": formatAmount(e.BaseReward),
	}
	if !zeroAddress(e.Caller) {
		attrs["caller"] = crypto.MustNewAddress(crypto.RLQPrefix, e.Caller[:]).String()
	}
	return &Event{Type: TypePositionHarvested, Attributes: attrs}
}

// PositionBurned captures the destruction of an emptied position.
type PositionBurned struct {
	Position uint64
	Owner    [20]byte
}

// EventType satisfies the Payload interface.
func (PositionBurned) EventType() string { return TypePositionBurned }

// Event converts the structured payload into a broadcastable event.
func (e PositionBurned) Event() *Event {
	attrs := map[string]string{"position": strconv.FormatUint(e.Position, 10)}
	if !zeroAddress(e.Owner) {
		attrs["owner"] = crypto.MustNewAddress(crypto.RLQPrefix, e.Owner[:]).String()
	}
	return &Event{Type: TypePositionBurned, Attributes: attrs}
}
