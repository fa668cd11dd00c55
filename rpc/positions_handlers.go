package rpc

import (
	"net/http"
)

type positionsGetParams struct {
	PositionID uint64 `json:"positionId"`
}

type positionResult struct {
	ID          uint64 `json:"id"`
	Owner       string `json:"owner"`
	Approved    string `json:"approved,omitempty"`
	Amount      string `json:"amount"`
	CreatedAt   uint64 `json:"createdAt"`
	LastDeposit uint64 `json:"lastDeposit"`
}

type positionsMintParams struct {
	Owner string `json:"owner"`
}

type positionsMintResult struct {
	PositionID uint64 `json:"positionId"`
	Owner      string `json:"owner"`
}

type positionsApproveParams struct {
	Caller     string `json:"caller"`
	PositionID uint64 `json:"positionId"`
	Operator   string `json:"operator,omitempty"`
}

type positionsAmountParams struct {
	Caller     string `json:"caller"`
	PositionID uint64 `json:"positionId"`
	Amount     string `json:"amount"`
}

type positionsHarvestParams struct {
	Caller     string `json:"caller"`
	PositionID uint64 `json:"positionId"`
	BaseReward string `json:"baseReward"`
}

type positionsBurnParams struct {
	Caller     string `json:"caller"`
	PositionID uint64 `json:"positionId"`
}

type ackResult struct {
	PositionID uint64 `json:"positionId"`
	Status     string `json:"status"`
}

func (s *Server) handlePositionsGet(w http.ResponseWriter, req *RPCRequest) {
	var params positionsGetParams
	if rpcErr := singleParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	pos, err := s.ledger.Get(params.PositionID)
	if err != nil {
		status, rpcErr := moduleError(err)
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	anchor, err := s.state.RewarderLastDeposit(params.PositionID)
	if err != nil {
		status, rpcErr := moduleError(err)
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	result := positionResult{
		ID:          pos.ID,
		Owner:       encodeBech32(pos.Owner),
		Amount:      pos.Amount.String(),
		CreatedAt:   pos.CreatedAt,
		LastDeposit: anchor,
	}
	if pos.Approved != ([20]byte{}) {
		result.Approved = encodeBech32(pos.Approved)
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handlePositionsMint(w http.ResponseWriter, req *RPCRequest) {
	var params positionsMintParams
	if rpcErr := singleParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	owner, err := decodeBech32(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	id, err := s.ledger.Mint(owner)
	if err != nil {
		status, rpcErr := moduleError(err)
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, positionsMintResult{PositionID: id, Owner: encodeBech32(owner)})
}

func (s *Server) handlePositionsApprove(w http.ResponseWriter, req *RPCRequest) {
	var params positionsApproveParams
	if rpcErr := singleParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	var operator [20]byte
	if params.Operator != "" {
		operator, err = decodeBech32(params.Operator)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid operator address", err.Error())
			return
		}
	}
	if err := s.ledger.Approve(caller, params.PositionID, operator); err != nil {
		status, rpcErr := moduleError(err)
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, ackResult{PositionID: params.PositionID, Status: "approved"})
}

func (s *Server) handlePositionsDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params positionsAmountParams
	if rpcErr := singleParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.Deposit(caller, params.PositionID, amount); err != nil {
		status, rpcErr := moduleError(err)
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, ackResult{PositionID: params.PositionID, Status: "deposited"})
}

func (s *Server) handlePositionsWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params positionsAmountParams
	if rpcErr := singleParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.Withdraw(caller, params.PositionID, amount); err != nil {
		status, rpcErr := moduleError(err)
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, ackResult{PositionID: params.PositionID, Status: "withdrawn"})
}

func (s *Server) handlePositionsHarvest(w http.ResponseWriter, req *RPCRequest) {
	var params positionsHarvestParams
	if rpcErr := singleParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	base, err := parseAmount(params.BaseReward)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.Harvest(caller, params.PositionID, base); err != nil {
		status, rpcErr := moduleError(err)
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, ackResult{PositionID: params.PositionID, Status: "harvested"})
}

func (s *Server) handlePositionsBurn(w http.ResponseWriter, req *RPCRequest) {
	var params positionsBurnParams
	if rpcErr := singleParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.ledger.Burn(caller, params.PositionID); err != nil {
		status, rpcErr := moduleError(err)
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, ackResult{PositionID: params.PositionID, Status: "burned"})
}
