package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lightlink-network/ll-bridge-tracker/tracker"
)

const balanceTimeout = 5 * time.Second

type accountResponse struct {
	Account    common.Address `json:"account"`
	CanDeposit bool           `json:"can_deposit"`
	L1Balance  *big.Int       `json:"l1_balance,omitempty"`
	L2Balance  *big.Int       `json:"l2_balance,omitempty"`
}

type accountRequest struct {
	Account string `json:"account"`
}

func (s *Server) handleHealthGet(w http.ResponseWriter, r *http.Request) {
	res := map[string]interface{}{"health_status": "online"}

	if s.index != nil {
		indexed := map[string]uint64{}
		for _, chain := range []string{"ethereum", "lightlink"} {
			block, err := s.index.GetLastIndexedBlock(r.Context(), chain)
			if err != nil {
				s.log.Warn("failed to read indexer progress", "chain", chain, "error", err)
				res["health_status"] = "degraded"
				continue
			}
			indexed[chain] = block
		}
		res["last_indexed_block"] = indexed
	}

	JSON(w, http.StatusOK, res)
}

func (s *Server) handleAccountGet(w http.ResponseWriter, r *http.Request) {
	account := s.tracker.Account()
	res := accountResponse{
		Account:    account,
		CanDeposit: s.tracker.CanDeposit(),
	}

	if account != (common.Address{}) {
		ctx, cancel := context.WithTimeout(r.Context(), balanceTimeout)
		defer cancel()
		res.L1Balance = s.balance(ctx, s.l1, "ethereum", account)
		res.L2Balance = s.balance(ctx, s.l2, "lightlink", account)
	}

	JSON(w, http.StatusOK, res)
}

// balance returns nil when the chain has no reader or the read fails.
func (s *Server) balance(ctx context.Context, reader BalanceReader, chain string, account common.Address) *big.Int {
	if reader == nil {
		return nil
	}
	balance, err := reader.BalanceAt(ctx, account)
	if err != nil {
		s.log.Warn("failed to read balance", "chain", chain, "account", account.Hex(), "error", err)
		return nil
	}
	return balance
}

func (s *Server) handleAccountPut(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ERROR(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if !common.IsHexAddress(req.Account) {
		ERROR(w, http.StatusBadRequest, errors.New("invalid account address"))
		return
	}

	account := common.HexToAddress(req.Account)
	if err := s.tracker.SetAccount(account); err != nil {
		if errors.Is(err, tracker.ErrSchedulerClosed) {
			ERROR(w, http.StatusServiceUnavailable, err)
			return
		}
		ERROR(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("account switched", "account", account.Hex())

	JSON(w, http.StatusAccepted, accountResponse{
		Account:    account,
		CanDeposit: s.tracker.CanDeposit(),
	})
}

func (s *Server) handleBalanceSignalPost(w http.ResponseWriter, r *http.Request) {
	s.tracker.OnBalanceChange()
	JSON(w, http.StatusAccepted, map[string]interface{}{"refresh": "deposits"})
}
