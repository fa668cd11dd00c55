package events

import (
	"math/big"
	"strconv"

	"github.com/imrtlfarm/Reliquary/crypto"
)

const (
	// TypeRewarderRewardPaid is emitted when a realized base reward is scaled
	// and paid out to a recipient.
	TypeRewarderRewardPaid = "rewarder.rewardPaid"
	// TypeRewarderBonusPaid is emitted when a deposit bonus window matures and
	// the bonus is paid out.
	TypeRewarderBonusPaid = "rewarder.bonusPaid"
	// TypeRewarderWindowOpened is emitted when a qualifying deposit anchors a
	// new bonus window for a position.
	TypeRewarderWindowOpened = "rewarder.windowOpened"
)

// RewardPaid captures the proportional payout for a realized base reward.
type RewardPaid struct {
	Position      uint64
	Recipient     [20]byte
	Base          *big.Int
	Paid          *big.Int
	MultiplierBps uint64
}

// EventType satisfies the Payload interface.
func (RewardPaid) EventType() string { return TypeRewarderRewardPaid }

// Event converts the structured payload into a broadcastable event.
func (e RewardPaid) Event() *Event {
	attrs := map[string]string{
		"position":      strconv.FormatUint(e.Position, 10),
		"base":          formatAmount(e.Base),
		"paid":          formatAmount(e.Paid),
		"multiplierBps": strconv.FormatUint(e.MultiplierBps, 10),
	}
	if !zeroAddress(e.Recipient) {
		attrs["recipient"] = crypto.MustNewAddress(crypto.RLQPrefix, e.Recipient[:]).String()
	}
	return &Event{Type: TypeRewarderRewardPaid, Attributes: attrs}
}

// BonusPaid captures a matured deposit bonus payout.
type BonusPaid struct {
	Position  uint64
	Recipient [20]byte
	Amount    *big.Int
	Anchor    uint64
	PaidAt    uint64
}

// EventType satisfies the Payload interface.
func (BonusPaid) EventType() string { return TypeRewarderBonusPaid }

// Event converts the structured payload into a broadcastable event.
func (e BonusPaid) Event() *Event {
	attrs := map[string]string{
		"position": strconv.FormatUint(e.Position, 10),
		"amount":   formatAmount(e.Amount),
		"anchor":   strconv.FormatUint(e.Anchor, 10),
		"paidAt":   strconv.FormatUint(e.PaidAt, 10),
	}
	if !zeroAddress(e.Recipient) {
		attrs["recipient"] = crypto.MustNewAddress(crypto.RLQPrefix, e.Recipient[:]).String()
	}
	return &Event{Type: TypeRewarderBonusPaid, Attributes: attrs}
}

// WindowOpened captures a qualifying deposit anchoring a fresh bonus window.
type WindowOpened struct {
	Position uint64
	Amount   *big.Int
	OpenedAt uint64
}

// EventType satisfies the Payload interface.
func (WindowOpened) EventType() string { return TypeRewarderWindowOpened }

// Event converts the structured payload into a broadcastable event.
func (e WindowOpened) Event() *Event {
	return &Event{Type: TypeRewarderWindowOpened, Attributes: map[string]string{
		"position": strconv.FormatUint(e.Position, 10),
		"amount":   formatAmount(e.Amount),
		"openedAt": strconv.FormatUint(e.OpenedAt, 10),
	}}
}
