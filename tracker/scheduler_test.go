package tracker

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lightlink-network/ll-bridge-tracker/account"
	"github.com/lightlink-network/ll-bridge-tracker/bridge"
	"github.com/lightlink-network/ll-bridge-tracker/types"
)

var originChain = big.NewInt(1)

func newTestScheduler(t *testing.T, gw *fakeGateway) *Scheduler {
	t.Helper()

	s := NewScheduler(SchedulerOpts{
		Account: account.NewContext(originChain),
		GatewayFactory: func(context.Context, account.Signer) (bridge.Gateway, error) {
			return gw, nil
		},
		CallTimeout: 2 * time.Second,
	})
	s.SetAccount(testAccount)
	s.SetSigner(stubSigner{chainID: originChain})
	s.Wait()

	t.Cleanup(func() {
		s.Teardown()
		s.Wait()
	})
	return s
}

func TestSchedulerFinalizeAfterChallengePeriod(t *testing.T) {
	gw := newFakeGateway()
	msg := gw.addWithdrawal(wd1, types.InChallengePeriod)
	s := newTestScheduler(t, gw)

	transfers := s.Transfers()
	if len(transfers) != 1 || transfers[0].ID != wd1 || transfers[0].Status != types.InChallengePeriod {
		t.Fatalf("Transfers() = %+v, want %s in challenge period", transfers, wd1.Hex())
	}
	if IsFinalizable(transfers[0]) {
		t.Fatal("transfer in challenge period is finalizable")
	}
	if _, err := s.Finalize(context.Background(), wd1); !errors.Is(err, ErrNotFinalizable) {
		t.Fatalf("Finalize() error = %v, want ErrNotFinalizable", err)
	}

	gw.setStatus(msg, types.ReadyForRelay)
	s.OnBlock(101)
	s.Wait()

	transfers = s.Transfers()
	if len(transfers) != 1 || transfers[0].Status != types.ReadyForRelay {
		t.Fatalf("Transfers() = %+v, want ready for relay", transfers)
	}
	if !IsFinalizable(transfers[0]) {
		t.Fatal("transfer ready for relay is not finalizable")
	}

	if _, err := s.Finalize(context.Background(), wd1); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	calls := gw.finalizeCalls()
	if len(calls) != 1 || calls[0].MessageHash != msg.MessageHash {
		t.Fatalf("finalize calls = %+v, want one for %s", calls, msg.MessageHash.Hex())
	}
	if tr, _ := s.Transfer(wd1); tr.Status != types.ReadyForRelay {
		t.Errorf("status changed locally to %s after finalize", tr.Status)
	}
}

func TestSchedulerFinalizeUnknownTransfer(t *testing.T) {
	s := newTestScheduler(t, newFakeGateway())
	if _, err := s.Finalize(context.Background(), wd2); !errors.Is(err, ErrTransferNotFound) {
		t.Fatalf("Finalize() error = %v, want ErrTransferNotFound", err)
	}
}

func TestSchedulerOutOfOrderCompletion(t *testing.T) {
	gw := newFakeGateway()
	s := newTestScheduler(t, gw)

	setA := []types.Deposit{{TxHash: common.HexToHash("0xA")}}
	setB := []types.Deposit{{TxHash: common.HexToHash("0xB")}}

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	gw.setDepositsHook(func(ctx context.Context) ([]types.Deposit, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return setA, nil
		}
		return setB, nil
	})

	s.OnBalanceChange() // cycle A
	<-started
	s.OnBalanceChange() // cycle B

	waitFor(t, "cycle B to commit", func() bool {
		d := s.Deposits()
		return len(d) == 1 && d[0].TxHash == setB[0].TxHash
	})

	close(release)
	s.Wait()

	if d := s.Deposits(); len(d) != 1 || d[0].TxHash != setB[0].TxHash {
		t.Fatalf("Deposits() = %+v, late cycle A overwrote cycle B", d)
	}
}

func TestSchedulerTeardownDiscardsInFlight(t *testing.T) {
	gw := newFakeGateway()
	gw.setDeposits([]types.Deposit{{TxHash: common.HexToHash("0x01")}})
	s := newTestScheduler(t, gw)
	if len(s.Deposits()) != 1 {
		t.Fatalf("Deposits() = %+v, want the initial set", s.Deposits())
	}

	started := make(chan struct{})
	release := make(chan struct{})
	gw.setDepositsHook(func(ctx context.Context) ([]types.Deposit, error) {
		close(started)
		<-release
		return []types.Deposit{{TxHash: common.HexToHash("0x02")}}, nil
	})

	s.OnBalanceChange()
	<-started
	s.Teardown()
	close(release)
	s.Wait()

	if d := s.Deposits(); len(d) != 0 {
		t.Fatalf("Deposits() = %+v after teardown, want none", d)
	}

	s.OnBlock(200)
	s.Wait()
	if d := s.Deposits(); len(d) != 0 {
		t.Fatalf("cycle ran after teardown: %+v", d)
	}
}

func TestSchedulerDropsWithdrawalWithoutMessage(t *testing.T) {
	gw := newFakeGateway()
	gw.addWithdrawal(wd1, types.ReadyForRelay)
	gw.addWithdrawal(wd2, types.InChallengePeriod)
	delete(gw.messages, wd2)

	s := newTestScheduler(t, gw)

	if n := len(s.Withdrawals()); n != 2 {
		t.Fatalf("got %d withdrawals, want 2", n)
	}
	transfers := s.Transfers()
	if len(transfers) != 1 || transfers[0].ID != wd1 {
		t.Fatalf("Transfers() = %+v, want only %s", transfers, wd1.Hex())
	}
}

func TestSchedulerKeepsSnapshotOnFetchFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.setDeposits([]types.Deposit{{TxHash: common.HexToHash("0x01")}})
	s := newTestScheduler(t, gw)

	gw.setDepositsHook(func(context.Context) ([]types.Deposit, error) {
		return nil, errors.New("rpc unavailable")
	})
	s.OnBalanceChange()
	s.Wait()

	if d := s.Deposits(); len(d) != 1 {
		t.Fatalf("Deposits() = %+v, want previous snapshot kept", d)
	}
}

func TestSchedulerSetAccountDropsPreviousAccount(t *testing.T) {
	gw := newFakeGateway()
	gw.setDeposits([]types.Deposit{{TxHash: common.HexToHash("0x09")}})
	s := newTestScheduler(t, gw)
	if len(s.Deposits()) != 1 {
		t.Fatalf("Deposits() = %+v, want the initial set", s.Deposits())
	}

	started := make(chan struct{})
	release := make(chan struct{})
	gw.setDepositsHook(func(ctx context.Context) ([]types.Deposit, error) {
		select {
		case <-started:
		default:
			close(started)
		}
		<-release
		return []types.Deposit{{TxHash: common.HexToHash("0x01")}}, nil
	})

	s.OnBalanceChange()
	<-started
	s.SetAccount(common.HexToAddress("0xBBB"))
	if d := s.Deposits(); len(d) != 0 {
		t.Fatalf("Deposits() = %+v right after switching account, want none", d)
	}
	close(release)
	s.Wait()

	if s.Account() != common.HexToAddress("0xBBB") {
		t.Fatalf("Account() = %s", s.Account().Hex())
	}
	// the refresh for the new account still lands
	if d := s.Deposits(); len(d) != 1 {
		t.Fatalf("Deposits() = %+v, want the new account's refresh", d)
	}
}

func TestSchedulerDepositRequiresValidOrigin(t *testing.T) {
	gw := newFakeGateway()
	s := newTestScheduler(t, gw)

	s.SetSigner(stubSigner{chainID: big.NewInt(5)})
	s.Wait()
	if s.CanDeposit() {
		t.Fatal("CanDeposit() with a signer on the wrong network")
	}
	if _, err := s.DepositETH(context.Background(), big.NewInt(1)); !errors.Is(err, ErrInvalidOriginContext) {
		t.Fatalf("DepositETH() error = %v, want ErrInvalidOriginContext", err)
	}

	// withdrawals keep being tracked
	gw.addWithdrawal(wd1, types.InChallengePeriod)
	s.OnBlock(1)
	s.Wait()
	if len(s.Transfers()) != 1 {
		t.Fatalf("Transfers() = %+v, want tracking to continue", s.Transfers())
	}

	s.SetSigner(stubSigner{chainID: originChain})
	s.Wait()
	if _, err := s.DepositETH(context.Background(), big.NewInt(1)); err != nil {
		t.Fatalf("DepositETH() error = %v", err)
	}
	if len(gw.deposited) != 1 {
		t.Errorf("gateway saw %d deposits, want 1", len(gw.deposited))
	}
}

func TestSchedulerDepositRequiresSignerForAccount(t *testing.T) {
	gw := newFakeGateway()
	s := newTestScheduler(t, gw)
	if !s.CanDeposit() {
		t.Fatal("CanDeposit() = false for the signer's own account")
	}

	if err := s.SetAccount(common.HexToAddress("0xBBB")); err != nil {
		t.Fatalf("SetAccount() error = %v", err)
	}
	s.Wait()
	if s.CanDeposit() {
		t.Fatal("CanDeposit() for an account the signer does not control")
	}
	if _, err := s.DepositETH(context.Background(), big.NewInt(1)); !errors.Is(err, ErrInvalidOriginContext) {
		t.Fatalf("DepositETH() error = %v, want ErrInvalidOriginContext", err)
	}

	s.SetSigner(stubSigner{chainID: originChain, addr: common.HexToAddress("0xBBB")})
	s.Wait()
	if _, err := s.DepositETH(context.Background(), big.NewInt(1)); err != nil {
		t.Fatalf("DepositETH() error = %v", err)
	}
	if len(gw.deposited) != 1 {
		t.Errorf("gateway saw %d deposits, want 1", len(gw.deposited))
	}
}

func TestSchedulerKeepsSnapshotOnHungFetch(t *testing.T) {
	gw := newFakeGateway()
	gw.setDeposits([]types.Deposit{{TxHash: common.HexToHash("0x01")}})

	s := NewScheduler(SchedulerOpts{
		Account: account.NewContext(originChain),
		GatewayFactory: func(context.Context, account.Signer) (bridge.Gateway, error) {
			return gw, nil
		},
		CallTimeout: 50 * time.Millisecond,
	})
	defer s.Close()
	s.SetAccount(testAccount)
	s.SetSigner(stubSigner{chainID: originChain})
	s.Wait()
	if len(s.Deposits()) != 1 {
		t.Fatalf("Deposits() = %+v, want the initial set", s.Deposits())
	}

	release := make(chan struct{})
	defer close(release)
	gw.setDepositsHook(func(context.Context) ([]types.Deposit, error) {
		<-release
		return []types.Deposit{}, nil
	})

	s.OnBalanceChange()
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cycle did not give up on a fetch that never returns")
	}

	if d := s.Deposits(); len(d) != 1 {
		t.Fatalf("Deposits() = %+v, want previous snapshot kept", d)
	}
}

func TestSchedulerClosedIgnoresTriggers(t *testing.T) {
	gw := newFakeGateway()
	gw.setDeposits([]types.Deposit{{TxHash: common.HexToHash("0x01")}})
	s := newTestScheduler(t, gw)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, nil, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if err := s.SetAccount(common.HexToAddress("0xBBB")); !errors.Is(err, ErrSchedulerClosed) {
		t.Fatalf("SetAccount() error = %v, want ErrSchedulerClosed", err)
	}
	s.OnBlock(1)
	s.OnBalanceChange()
	s.SetSigner(stubSigner{chainID: originChain})
	s.Wait()

	if s.Account() != testAccount {
		t.Errorf("Account() = %s, want the account from before close", s.Account().Hex())
	}
	if d := s.Deposits(); len(d) != 0 {
		t.Errorf("Deposits() = %+v after close, want none", d)
	}
}

func TestSchedulerKeepsLatestSignerGateway(t *testing.T) {
	slow, fast := newFakeGateway(), newFakeGateway()
	release := make(chan struct{})

	s := NewScheduler(SchedulerOpts{
		Account: account.NewContext(originChain),
		GatewayFactory: func(ctx context.Context, signer account.Signer) (bridge.Gateway, error) {
			if signer.ChainID().Cmp(big.NewInt(5)) == 0 {
				<-release
				return slow, nil
			}
			return fast, nil
		},
	})
	defer s.Teardown()

	s.SetSigner(stubSigner{chainID: big.NewInt(5)})
	s.SetSigner(stubSigner{chainID: originChain})
	waitFor(t, "gateway", func() bool { return s.Gateway() != nil })
	close(release)
	s.Wait()

	if s.Gateway() != bridge.Gateway(fast) {
		t.Fatal("gateway of a replaced signer won")
	}
}

type fakeBlocks struct {
	heads []uint64
}

func (f fakeBlocks) WatchBlocks(ctx context.Context, fn func(uint64)) error {
	for _, h := range f.heads {
		fn(h)
	}
	<-ctx.Done()
	return nil
}

func TestSchedulerRun(t *testing.T) {
	gw := newFakeGateway()
	msg := gw.addWithdrawal(wd1, types.ReadyToProve)
	s := newTestScheduler(t, gw)
	gw.setStatus(msg, types.InChallengePeriod)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- s.Run(ctx, fakeBlocks{heads: []uint64{10, 11}}, nil)
	}()

	waitFor(t, "block refresh", func() bool {
		tr, ok := s.Transfer(wd1)
		return ok && tr.Status == types.InChallengePeriod
	})
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if len(s.Transfers()) != 0 {
		t.Error("Run() left the session alive")
	}
}
