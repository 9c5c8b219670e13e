package ethereum

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type scriptedHeads struct {
	mu     sync.Mutex
	heads  []uint64
	errs   []error
	cancel context.CancelFunc
}

func (s *scriptedHeads) BlockNumber(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.heads) == 0 {
		s.cancel()
		return 0, ctx.Err()
	}
	head, err := s.heads[0], s.errs[0]
	s.heads, s.errs = s.heads[1:], s.errs[1:]
	return head, err
}

func TestWatchBlocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &scriptedHeads{
		heads:  []uint64{100, 100, 0, 101, 105},
		errs:   []error{nil, nil, errors.New("timeout"), nil, nil},
		cancel: cancel,
	}

	var got []uint64
	err := watchBlocks(ctx, r, time.Millisecond, slog.Default(), func(n uint64) {
		got = append(got, n)
	})
	if err != nil {
		t.Fatalf("watchBlocks() error = %v", err)
	}

	want := []uint64{100, 101, 105}
	if len(got) != len(want) {
		t.Fatalf("got blocks %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got blocks %v, want %v", got, want)
		}
	}
}

func TestWatchBlocksReportsReorg(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &scriptedHeads{
		heads:  []uint64{100, 101, 99, 99, 100},
		errs:   []error{nil, nil, nil, nil, nil},
		cancel: cancel,
	}

	var got []uint64
	if err := watchBlocks(ctx, r, time.Millisecond, slog.Default(), func(n uint64) {
		got = append(got, n)
	}); err != nil {
		t.Fatalf("watchBlocks() error = %v", err)
	}

	want := []uint64{100, 101, 99, 100}
	if len(got) != len(want) {
		t.Fatalf("got blocks %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got blocks %v, want %v", got, want)
		}
	}
}

type scriptedBalances struct {
	mu       sync.Mutex
	balances []int64
	cancel   context.CancelFunc
}

func (s *scriptedBalances) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.balances) == 0 {
		s.cancel()
		return nil, ctx.Err()
	}
	b := s.balances[0]
	s.balances = s.balances[1:]
	return big.NewInt(b), nil
}

func TestWatchBalance(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &scriptedBalances{balances: []int64{10, 10, 7, 7, 9}, cancel: cancel}
	account := common.HexToAddress("0xAAA")

	var got []int64
	err := watchBalance(ctx, r, func() common.Address { return account }, time.Millisecond, slog.Default(), func(b *big.Int) {
		got = append(got, b.Int64())
	})
	if err != nil {
		t.Fatalf("watchBalance() error = %v", err)
	}

	if len(got) != 2 || got[0] != 7 || got[1] != 9 {
		t.Fatalf("got balance changes %v, want [7 9]", got)
	}
}

func TestWatchBalanceSkipsUnsetAccount(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	r := &scriptedBalances{balances: []int64{1, 2, 3}, cancel: cancel}
	called := false
	_ = watchBalance(ctx, r, func() common.Address { return common.Address{} }, time.Millisecond, slog.Default(), func(*big.Int) {
		called = true
	})

	if called {
		t.Error("balance watcher should not report without an account")
	}
	if len(r.balances) != 3 {
		t.Error("balance watcher should not poll without an account")
	}
}
