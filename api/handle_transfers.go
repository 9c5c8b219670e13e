package api

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/lightlink-network/ll-bridge-tracker/bridge"
	"github.com/lightlink-network/ll-bridge-tracker/tracker"
	"github.com/lightlink-network/ll-bridge-tracker/types"
)

type transferResponse struct {
	types.Transfer
	Finalizable bool `json:"finalizable"`
}

type depositRequest struct {
	Amount string `json:"amount"` // wei, base 10
}

func (s *Server) handleDepositsGet(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, s.tracker.Deposits())
}

func (s *Server) handleWithdrawalsGet(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, s.tracker.Withdrawals())
}

func (s *Server) handleTransfersGet(w http.ResponseWriter, r *http.Request) {
	transfers := s.tracker.Transfers()

	res := make([]transferResponse, 0, len(transfers))
	for _, t := range transfers {
		res = append(res, transferResponse{Transfer: t, Finalizable: tracker.IsFinalizable(t)})
	}

	JSON(w, http.StatusOK, res)
}

func (s *Server) handleDepositsPost(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ERROR(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		ERROR(w, http.StatusBadRequest, errors.New("amount must be a positive integer in wei"))
		return
	}

	sub, err := s.tracker.DepositETH(r.Context(), amount)
	if err != nil {
		s.log.Error("deposit failed", "amount", amount.String(), "error", err)
		ERROR(w, submissionStatus(err), err)
		return
	}

	JSON(w, http.StatusAccepted, sub)
}

func (s *Server) handleFinalizePost(w http.ResponseWriter, r *http.Request) {
	raw, err := hexutil.Decode(chi.URLParam(r, "id"))
	if err != nil || len(raw) != common.HashLength {
		ERROR(w, http.StatusBadRequest, errors.New("invalid transfer id"))
		return
	}
	id := common.BytesToHash(raw)

	sub, err := s.tracker.Finalize(r.Context(), id)
	if err != nil {
		s.log.Error("finalize failed", "id", id.Hex(), "error", err)
		ERROR(w, submissionStatus(err), err)
		return
	}

	JSON(w, http.StatusAccepted, sub)
}

func submissionStatus(err error) int {
	switch {
	case errors.Is(err, tracker.ErrTransferNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrNotFinalizable):
		return http.StatusConflict
	case errors.Is(err, tracker.ErrInvalidOriginContext), errors.Is(err, bridge.ErrNoSigner):
		return http.StatusPreconditionFailed
	case errors.Is(err, bridge.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
