package state

import (
	"fmt"
	"math/big"
)

// Position is the stored record for a staked position. Ownership and approval
// live here; reward bookkeeping for the position lives with the rewarder.
type Position struct {
	ID        uint64
	Owner     [20]byte
	Approved  [20]byte
	Amount    *big.Int
	CreatedAt uint64
}

const (
	positionKeyFormat  = "positions/record/%d"
	positionNextIDName = "positions/nextId"
)

func positionKey(id uint64) []byte {
	return []byte(fmt.Sprintf(positionKeyFormat, id))
}

func normalizePosition(p *Position) *Position {
	if p == nil {
		return nil
	}
	clone := *p
	if clone.Amount == nil {
		clone.Amount = big.NewInt(0)
	} else {
		clone.Amount = new(big.Int).Set(clone.Amount)
	}
	return &clone
}

// PositionPut stores or overwrites a position record.
func (m *Manager) PositionPut(p *Position) error {
	if p == nil {
		return fmt.Errorf("nil position")
	}
	if p.ID == 0 {
		return fmt.Errorf("position id must be nonzero")
	}
	return m.KVPut(positionKey(p.ID), normalizePosition(p))
}

// PositionGet loads a position record. The boolean reports existence.
func (m *Manager) PositionGet(id uint64) (*Position, bool, error) {
	stored := new(Position)
	ok, err := m.KVGet(positionKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return normalizePosition(stored), true, nil
}

// PositionDelete removes a position record.
func (m *Manager) PositionDelete(id uint64) error {
	return m.KVDelete(positionKey(id))
}

// PositionNextID allocates the next sequential position id, starting at 1.
func (m *Manager) PositionNextID() (uint64, error) {
	var next uint64
	ok, err := m.KVGet([]byte(positionNextIDName), &next)
	if err != nil {
		return 0, err
	}
	if !ok || next == 0 {
		next = 1
	}
	if err := m.KVPut([]byte(positionNextIDName), next+1); err != nil {
		return 0, err
	}
	return next, nil
}
