package tracker

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lightlink-network/ll-bridge-tracker/bridge"
	"github.com/lightlink-network/ll-bridge-tracker/types"
)

var (
	testAccount = common.HexToAddress("0xAAA")
	wd1         = common.HexToHash("0xD1")
	wd2         = common.HexToHash("0xD2")
)

// fakeGateway is an in-memory bridge. The on* hooks, when set, replace the
// canned answers.
type fakeGateway struct {
	mu          sync.Mutex
	deposits    []types.Deposit
	withdrawals []types.Withdrawal
	messages    map[common.Hash][]types.Message
	statuses    map[common.Hash]types.MessageStatus
	finalized   []types.Message
	deposited   []*big.Int

	onDeposits func(ctx context.Context) ([]types.Deposit, error)
	onStatus   func(ctx context.Context, message types.Message) (types.MessageStatus, error)
}

var _ bridge.Gateway = &fakeGateway{}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		messages: map[common.Hash][]types.Message{},
		statuses: map[common.Hash]types.MessageStatus{},
	}
}

func (f *fakeGateway) addWithdrawal(tx common.Hash, status types.MessageStatus) types.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg := types.Message{
		Direction:      types.L2ToL1,
		TxHash:         tx,
		MessageHash:    common.BytesToHash(append([]byte("msg"), tx.Bytes()...)),
		WithdrawalHash: common.BytesToHash(append([]byte("wd"), tx.Bytes()...)),
		Nonce:          big.NewInt(1),
		Value:          big.NewInt(100),
		GasLimit:       big.NewInt(21000),
	}
	f.withdrawals = append(f.withdrawals, types.Withdrawal{TxHash: tx, From: testAccount, To: testAccount, Amount: big.NewInt(100)})
	f.messages[tx] = []types.Message{msg}
	f.statuses[msg.MessageHash] = status
	return msg
}

func (f *fakeGateway) setStatus(message types.Message, status types.MessageStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[message.MessageHash] = status
}

func (f *fakeGateway) setDeposits(deposits []types.Deposit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deposits = deposits
}

func (f *fakeGateway) setDepositsHook(fn func(ctx context.Context) ([]types.Deposit, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onDeposits = fn
}

func (f *fakeGateway) GetDepositsByAddress(ctx context.Context, address common.Address) ([]types.Deposit, error) {
	f.mu.Lock()
	hook, deposits := f.onDeposits, append([]types.Deposit{}, f.deposits...)
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx)
	}
	return deposits, nil
}

func (f *fakeGateway) GetWithdrawalsByAddress(ctx context.Context, address common.Address) ([]types.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Withdrawal{}, f.withdrawals...), nil
}

func (f *fakeGateway) GetMessagesByTransaction(ctx context.Context, txHash common.Hash, direction types.Direction) ([]types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if direction != types.L2ToL1 {
		return []types.Message{}, nil
	}
	return append([]types.Message{}, f.messages[txHash]...), nil
}

func (f *fakeGateway) GetMessageStatus(ctx context.Context, message types.Message) (types.MessageStatus, error) {
	f.mu.Lock()
	hook, status := f.onStatus, f.statuses[message.MessageHash]
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, message)
	}
	return status, nil
}

func (f *fakeGateway) DepositETH(ctx context.Context, amount *big.Int) (*types.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deposited = append(f.deposited, amount)
	return &types.Submission{TxHash: common.HexToHash("0xDE"), Nonce: uint64(len(f.deposited))}, nil
}

func (f *fakeGateway) FinalizeMessage(ctx context.Context, message types.Message) (*types.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalized = append(f.finalized, message)
	return &types.Submission{TxHash: common.HexToHash("0xF1"), Nonce: uint64(len(f.finalized))}, nil
}

func (f *fakeGateway) finalizeCalls() []types.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Message{}, f.finalized...)
}

// stubSigner signs for testAccount unless addr is set.
type stubSigner struct {
	chainID *big.Int
	addr    common.Address
}

func (s stubSigner) ChainID() *big.Int { return s.chainID }

func (s stubSigner) Address() common.Address {
	if s.addr == (common.Address{}) {
		return testAccount
	}
	return s.addr
}

// waitFor polls cond until it holds or a second has passed.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func hashOf(i int) common.Hash {
	return common.BigToHash(big.NewInt(int64(i)))
}
