package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/lightlink-network/ll-bridge-tracker/types"
)

// Tracker is the reconciled view of one account and the actions it allows.
type Tracker interface {
	Account() common.Address
	SetAccount(account common.Address) error
	CanDeposit() bool
	Deposits() []types.Deposit
	Withdrawals() []types.Withdrawal
	Transfers() []types.Transfer
	OnBalanceChange()
	DepositETH(ctx context.Context, amount *big.Int) (*types.Submission, error)
	Finalize(ctx context.Context, id common.Hash) (*types.Submission, error)
}

// IndexStatus reports the bridge indexer's progress per chain.
type IndexStatus interface {
	GetLastIndexedBlock(ctx context.Context, chain string) (uint64, error)
}

// BalanceReader reads the native balance of an account on one chain.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
}

// API server
type Server struct {
	r       chi.Router
	log     *slog.Logger
	tracker Tracker
	index   IndexStatus
	l1      BalanceReader
	l2      BalanceReader
	opts    ServerOpts
}

type ServerOpts struct {
	Logger  *slog.Logger
	Port    string
	Tracker Tracker
	Index   IndexStatus // optional

	// Balance readers are optional; without them the account view omits the
	// chain's balance.
	L1Balances BalanceReader
	L2Balances BalanceReader
}

// Create API server
func NewServer(opts ServerOpts) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracker == nil {
		return nil, errors.New("api server needs a tracker")
	}

	s := &Server{
		log:     opts.Logger,
		tracker: opts.Tracker,
		index:   opts.Index,
		l1:      opts.L1Balances,
		l2:      opts.L2Balances,
		opts:    opts,
	}
	s.routes()

	return s, nil
}

// StartServer listens until ctx is done, then shuts down gracefully.
func (s *Server) StartServer(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.opts.Port,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("📡 Server Started. API Server is now listening on http://localhost:" + s.opts.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down api server")
	return srv.Shutdown(shutdownCtx)
}

// Turns server into http server
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

// Returns JSON response to the API user. HTTP status code
// and data must be provided
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		fmt.Fprintf(w, "%s", err.Error())
	}
}

// Returns ann error to the API user
func ERROR(w http.ResponseWriter, statusCode int, err error) {
	w.WriteHeader(statusCode)
	err = json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
	if err != nil {
		fmt.Fprintf(w, "%s", err.Error())
	}
}
