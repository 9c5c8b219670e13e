package tracker

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lightlink-network/ll-bridge-tracker/types"
)

var (
	errStaleCycle = errors.New("a newer cycle already committed this set")
	errTornDown   = errors.New("session torn down")
)

// session is the lifetime of one tracked account. Cycles capture it when
// they start and may only commit while it is still the store's session.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
}

type snapshot[T any] struct {
	seq   uint64
	items []T
}

func (s *snapshot[T]) replace(seq uint64, items []T) error {
	if seq <= s.seq {
		return errStaleCycle
	}
	s.seq = seq
	s.items = append([]T{}, items...)
	return nil
}

func (s *snapshot[T]) get() []T {
	return append([]T{}, s.items...)
}

// Store is the reconciled view of the tracked account. Each set is replaced
// whole by one cycle, and only by a cycle started after the one that wrote
// it last.
type Store struct {
	mu          sync.RWMutex
	session     *session
	deposits    snapshot[types.Deposit]
	withdrawals snapshot[types.Withdrawal]
	transfers   snapshot[types.Transfer]
}

func NewStore() *Store {
	s := &Store{}
	s.renew()
	return s
}

func (s *Store) Deposits() []types.Deposit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deposits.get()
}

func (s *Store) Withdrawals() []types.Withdrawal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.withdrawals.get()
}

func (s *Store) Transfers() []types.Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transfers.get()
}

// Transfer returns the latest transfer with the given id.
func (s *Store) Transfer(id common.Hash) (types.Transfer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transfers.items {
		if t.ID == id {
			return t, true
		}
	}
	return types.Transfer{}, false
}

func (s *Store) commitDeposits(sess *session, seq uint64, deposits []types.Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.live(sess); err != nil {
		return err
	}
	return s.deposits.replace(seq, deposits)
}

func (s *Store) commitWithdrawals(sess *session, seq uint64, withdrawals []types.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.live(sess); err != nil {
		return err
	}
	return s.withdrawals.replace(seq, withdrawals)
}

func (s *Store) commitTransfers(sess *session, seq uint64, transfers []types.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.live(sess); err != nil {
		return err
	}
	return s.transfers.replace(seq, transfers)
}

// live must be called with mu held.
func (s *Store) live(sess *session) error {
	if sess == nil || sess != s.session || sess.ctx.Err() != nil {
		return errTornDown
	}
	return nil
}

// current returns the live session, or nil after a teardown.
func (s *Store) current() *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// retire ends the live session and clears every set.
func (s *Store) retire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retireLocked()
}

// renew replaces the live session with a fresh one.
func (s *Store) renew() *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retireLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s.session = &session{ctx: ctx, cancel: cancel}
	return s.session
}

func (s *Store) retireLocked() {
	if s.session != nil {
		s.session.cancel()
		s.session = nil
	}
	s.deposits.items = nil
	s.withdrawals.items = nil
	s.transfers.items = nil
}
