package tracker

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/lightlink-network/ll-bridge-tracker/account"
	"github.com/lightlink-network/ll-bridge-tracker/bridge"
	"github.com/lightlink-network/ll-bridge-tracker/metrics"
	"github.com/lightlink-network/ll-bridge-tracker/types"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidOriginContext = errors.New("signer is not connected to the origin network")
	ErrTransferNotFound     = errors.New("transfer not found")
	ErrSchedulerClosed      = errors.New("scheduler is closed")
)

// GatewayFactory derives the bridge gateway for a signer. A nil or invalid
// signer still gets a read-only gateway.
type GatewayFactory func(ctx context.Context, signer account.Signer) (bridge.Gateway, error)

// BlockNotifier calls fn on every new origin block until ctx is done.
type BlockNotifier interface {
	WatchBlocks(ctx context.Context, fn func(blockNumber uint64)) error
}

// BalanceNotifier calls fn whenever the balance of the account returned by
// accountFn changes, until ctx is done.
type BalanceNotifier interface {
	WatchBalance(ctx context.Context, accountFn func() common.Address, fn func(balance *big.Int)) error
}

// Scheduler runs the reconciliation cycles that keep its Store in sync with
// the bridge. It is the only writer of the store.
type Scheduler struct {
	account     *account.Context
	factory     GatewayFactory
	resolver    *Resolver
	store       *Store
	callTimeout time.Duration
	logger      *slog.Logger

	seq atomic.Uint64

	mu         sync.RWMutex
	gateway    bridge.Gateway
	generation uint64
	closed     bool

	wg sync.WaitGroup
}

type SchedulerOpts struct {
	Account        *account.Context
	GatewayFactory GatewayFactory
	CallTimeout    time.Duration
	Concurrency    int
	Logger         *slog.Logger
}

func NewScheduler(opts SchedulerOpts) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.Account == nil {
		opts.Account = account.NewContext(nil)
	}

	return &Scheduler{
		account: opts.Account,
		factory: opts.GatewayFactory,
		resolver: NewResolver(ResolverOpts{
			Concurrency: opts.Concurrency,
			CallTimeout: opts.CallTimeout,
			Logger:      opts.Logger,
		}),
		store:       NewStore(),
		callTimeout: opts.CallTimeout,
		logger:      opts.Logger,
	}
}

type cycle struct {
	id       string
	seq      uint64
	trigger  string
	session  *session
	gateway  bridge.Gateway
	account  common.Address
	deposits bool
	transfer bool
}

// SetAccount switches the tracked account. Everything known about the
// previous account is dropped and in-flight cycles for it can no longer
// commit.
func (s *Scheduler) SetAccount(addr common.Address) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.account.SetAccount(addr)
	s.store.renew()
	s.mu.Unlock()

	s.logger.Info("tracking account", "account", addr.Hex())
	s.start("account", true, true)
	return nil
}

// SetSigner records signer and derives a new gateway for it in the
// background. Once the gateway is ready a full refresh runs with it.
func (s *Scheduler) SetSigner(signer account.Signer) {
	s.account.SetOriginSigner(signer)
	if s.factory == nil {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.generation++
	generation := s.generation
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.callTimeout)
		defer cancel()

		gw, err := s.factory(ctx, signer)
		if err != nil {
			s.logger.Error("failed to derive bridge gateway", "error", err)
			return
		}

		s.mu.Lock()
		if generation != s.generation {
			s.mu.Unlock()
			s.logger.Debug("discarding gateway for replaced signer", "generation", generation)
			return
		}
		s.gateway = gw
		s.mu.Unlock()

		s.logger.Info("bridge gateway ready", "canDeposit", s.account.CanDeposit())
		s.start("gateway", true, true)
	}()
}

// OnBlock runs a full refresh for a new origin block.
func (s *Scheduler) OnBlock(blockNumber uint64) {
	metrics.LastObservedBlock.Set(float64(blockNumber))
	s.start("block", true, true)
}

// OnBalanceChange refreshes deposits, which picks up a just submitted
// deposit before the next block.
func (s *Scheduler) OnBalanceChange() {
	s.start("balance", true, false)
}

// Run feeds block and balance notifications into the scheduler until ctx is
// done or a notifier fails, then tears down and waits for in-flight cycles.
// Either notifier may be nil.
func (s *Scheduler) Run(ctx context.Context, blocks BlockNotifier, balances BalanceNotifier) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	if blocks != nil {
		g.Go(func() error {
			return blocks.WatchBlocks(gctx, s.OnBlock)
		})
	}
	if balances != nil {
		g.Go(func() error {
			return balances.WatchBalance(gctx, s.account.Account, func(*big.Int) {
				s.OnBalanceChange()
			})
		})
	}

	err := g.Wait()
	s.Close()
	return err
}

// Close stops the scheduler for good: no cycle, account switch or gateway
// derivation starts afterwards. It tears down the session and waits for
// in-flight work.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.Teardown()
	s.Wait()
}

// Teardown ends the current session. Cycles still in flight finish without
// touching the store.
func (s *Scheduler) Teardown() {
	s.store.retire()
	s.logger.Info("tracker session torn down")
}

// Wait blocks until every started cycle and gateway derivation is done.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) Gateway() bridge.Gateway {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gateway
}

func (s *Scheduler) Account() common.Address {
	return s.account.Account()
}

// CanDeposit reports whether deposits may be initiated: the signer is on
// the origin chain and controls the tracked account.
func (s *Scheduler) CanDeposit() bool {
	return s.account.CanDeposit()
}

func (s *Scheduler) Deposits() []types.Deposit {
	return s.store.Deposits()
}

func (s *Scheduler) Withdrawals() []types.Withdrawal {
	return s.store.Withdrawals()
}

func (s *Scheduler) Transfers() []types.Transfer {
	return s.store.Transfers()
}

func (s *Scheduler) Transfer(id common.Hash) (types.Transfer, bool) {
	return s.store.Transfer(id)
}

// DepositETH initiates a deposit of amount wei from the tracked account.
func (s *Scheduler) DepositETH(ctx context.Context, amount *big.Int) (*types.Submission, error) {
	if !s.account.CanDeposit() {
		return nil, ErrInvalidOriginContext
	}
	gw := s.Gateway()
	if gw == nil {
		return nil, bridge.ErrNotInitialized
	}
	return gw.DepositETH(ctx, amount)
}

// Finalize finalizes the latest known state of transfer id.
func (s *Scheduler) Finalize(ctx context.Context, id common.Hash) (*types.Submission, error) {
	t, ok := s.store.Transfer(id)
	if !ok {
		return nil, ErrTransferNotFound
	}
	gw := s.Gateway()
	if gw == nil {
		return nil, bridge.ErrNotInitialized
	}
	return Finalize(ctx, gw, t)
}

func (s *Scheduler) start(trigger string, deposits, transfers bool) {
	sess := s.store.current()
	if sess == nil {
		s.logger.Debug("no live session, skipping cycle", "trigger", trigger)
		return
	}
	addr := s.account.Account()
	if addr == (common.Address{}) {
		s.logger.Debug("no account, skipping cycle", "trigger", trigger)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("scheduler closed, skipping cycle", "trigger", trigger)
		return
	}
	c := &cycle{
		id:       uuid.NewString(),
		seq:      s.seq.Add(1),
		trigger:  trigger,
		session:  sess,
		gateway:  s.gateway,
		account:  addr,
		deposits: deposits,
		transfer: transfers,
	}
	s.wg.Add(1)
	s.mu.Unlock()
	metrics.CyclesStarted.WithLabelValues(trigger).Inc()

	go func() {
		defer s.wg.Done()
		s.run(c)
	}()
}

func (s *Scheduler) run(c *cycle) {
	logger := s.logger.With("cycle", c.id, "seq", c.seq, "trigger", c.trigger, "account", c.account.Hex())
	logger.Debug("starting reconciliation cycle")

	var wg sync.WaitGroup
	if c.deposits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.refreshDeposits(c, logger)
		}()
	}
	if c.transfer {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.refreshTransfers(c, logger)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) refreshDeposits(c *cycle, logger *slog.Logger) {
	deposits, err := call(c.session.ctx, s.callTimeout, func(ctx context.Context) ([]types.Deposit, error) {
		return FetchDeposits(ctx, c.gateway, c.account)
	})
	if err != nil {
		s.fetchFailed("deposits", logger, err)
		return
	}

	s.committed("deposits", logger, s.store.commitDeposits(c.session, c.seq, deposits))
}

func (s *Scheduler) refreshTransfers(c *cycle, logger *slog.Logger) {
	withdrawals, err := call(c.session.ctx, s.callTimeout, func(ctx context.Context) ([]types.Withdrawal, error) {
		return FetchWithdrawals(ctx, c.gateway, c.account)
	})
	if err != nil {
		s.fetchFailed("withdrawals", logger, err)
		return
	}
	if !s.committed("withdrawals", logger, s.store.commitWithdrawals(c.session, c.seq, withdrawals)) {
		return
	}

	transfers, err := s.resolver.Resolve(c.session.ctx, c.gateway, withdrawals)
	if err != nil {
		s.fetchFailed("transfers", logger, err)
		return
	}

	previous := s.store.Transfers()
	if s.committed("transfers", logger, s.store.commitTransfers(c.session, c.seq, transfers)) {
		logRegressions(logger, previous, transfers)
	}
}

// logRegressions reports transfers whose status moved backwards, which
// happens on reorgs and relayer races.
func logRegressions(logger *slog.Logger, previous, current []types.Transfer) {
	before := make(map[common.Hash]types.MessageStatus, len(previous))
	for _, t := range previous {
		before[t.ID] = t.Status
	}
	for _, t := range current {
		if old, ok := before[t.ID]; ok && t.Status.Rank() < old.Rank() {
			logger.Info("transfer status regressed", "id", t.ID.Hex(), "from", old, "to", t.Status)
		}
	}
}

func (s *Scheduler) fetchFailed(set string, logger *slog.Logger, err error) {
	if errors.Is(err, context.Canceled) {
		logger.Debug("cycle cancelled", "set", set)
		return
	}
	metrics.FetchFailures.WithLabelValues(set).Inc()
	logger.Warn("failed to refresh, keeping previous snapshot", "set", set, "error", err)
}

func (s *Scheduler) committed(set string, logger *slog.Logger, err error) bool {
	switch {
	case err == nil:
		metrics.CommitsApplied.WithLabelValues(set).Inc()
		return true
	case errors.Is(err, errStaleCycle):
		metrics.CommitsDiscarded.WithLabelValues(set, "stale").Inc()
		logger.Debug("discarding stale snapshot", "set", set)
	case errors.Is(err, errTornDown):
		metrics.CommitsDiscarded.WithLabelValues(set, "torn_down").Inc()
		logger.Debug("discarding snapshot of torn down session", "set", set)
	default:
		logger.Error("failed to commit snapshot", "set", set, "error", err)
	}
	return false
}
