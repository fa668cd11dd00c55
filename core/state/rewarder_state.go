package state

import "fmt"

// The rewarder keeps one mutable value per position: the unix timestamp of the
// last qualifying deposit. A stored value of zero and an absent entry are both
// read back as zero, the sentinel for "no open bonus window". A deposit made
// at the literal unix epoch is therefore indistinguishable from no deposit;
// callers anchor test clocks above zero for that reason.

const rewarderLastDepositKeyFormat = "rewarder/lastDeposit/%d"

func rewarderLastDepositKey(positionID uint64) []byte {
	return []byte(fmt.Sprintf(rewarderLastDepositKeyFormat, positionID))
}

// RewarderLastDeposit returns the anchor timestamp of the position's open
// bonus window, or zero when no window is open.
func (m *Manager) RewarderLastDeposit(positionID uint64) (uint64, error) {
	var ts uint64
	ok, err := m.KVGet(rewarderLastDepositKey(positionID), &ts)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return ts, nil
}

// SetRewarderLastDeposit overwrites the position's bonus window anchor.
func (m *Manager) SetRewarderLastDeposit(positionID uint64, ts uint64) error {
	return m.KVPut(rewarderLastDepositKey(positionID), ts)
}

// ClearRewarderLastDeposit resets the position to the sentinel state.
func (m *Manager) ClearRewarderLastDeposit(positionID uint64) error {
	return m.KVDelete(rewarderLastDepositKey(positionID))
}
