package rpc

import (
	"math/big"
	"net/http"
	"strings"
)

type pendingRewardsParams struct {
	PositionID uint64 `json:"positionId"`
	BaseReward string `json:"baseReward,omitempty"`
}

type pendingRewardResult struct {
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
}

type claimDepositBonusParams struct {
	Caller     string `json:"caller"`
	PositionID uint64 `json:"positionId"`
	Recipient  string `json:"recipient,omitempty"`
}

type claimDepositBonusResult struct {
	Position  uint64 `json:"position"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

type rewarderConfigResult struct {
	RewardMultiplierBps uint64 `json:"rewardMultiplierBps"`
	DepositBonus        string `json:"depositBonus"`
	MinimumDeposit      string `json:"minimumDeposit"`
	CadenceSeconds      uint64 `json:"cadenceSeconds"`
	RewardSymbol        string `json:"rewardSymbol"`
	Pool                string `json:"pool"`
}

func (s *Server) handlePendingRewards(w http.ResponseWriter, req *RPCRequest) {
	var params pendingRewardsParams
	if rpcErr := singleParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	var base *big.Int
	if strings.TrimSpace(params.BaseReward) != "" {
		parsed, err := parseAmount(params.BaseReward)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		base = parsed
	}
	pending, err := s.engine.PendingRewards(params.PositionID, base)
	if err != nil {
		status, rpcErr := moduleError(err)
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	results := make([]pendingRewardResult, 0, len(pending))
	for _, entry := range pending {
		results = append(results, pendingRewardResult{Symbol: entry.Symbol, Amount: entry.Amount.String()})
	}
	writeResult(w, req.ID, results)
}

func (s *Server) handleClaimDepositBonus(w http.ResponseWriter, req *RPCRequest) {
	var params claimDepositBonusParams
	if rpcErr := singleParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	recipient := caller
	if params.Recipient != "" {
		recipient, err = decodeBech32(params.Recipient)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
			return
		}
	}
	if err := s.engine.ClaimDepositBonus(caller, params.PositionID, recipient); err != nil {
		status, rpcErr := moduleError(err)
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	cfg := s.engine.Config()
	writeResult(w, req.ID, claimDepositBonusResult{
		Position:  params.PositionID,
		Recipient: encodeBech32(recipient),
		Amount:    cfg.DepositBonus.String(),
	})
}

func (s *Server) handleRewarderConfig(w http.ResponseWriter, req *RPCRequest) {
	cfg := s.engine.Config()
	writeResult(w, req.ID, rewarderConfigResult{
		RewardMultiplierBps: cfg.RewardMultiplierBps,
		DepositBonus:        cfg.DepositBonus.String(),
		MinimumDeposit:      cfg.MinimumDeposit.String(),
		CadenceSeconds:      cfg.Cadence,
		RewardSymbol:        cfg.RewardSymbol,
		Pool:                encodeBech32(cfg.Pool),
	})
}
