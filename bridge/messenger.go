package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/lightlink-network/ll-bridge-tracker/database"
	"github.com/lightlink-network/ll-bridge-tracker/metrics"
	"github.com/lightlink-network/ll-bridge-tracker/types"
)

// Index is the read side of the bridge: the indexer database.
type Index interface {
	GetDepositsByAddress(ctx context.Context, from common.Address) ([]types.Deposit, error)
	GetWithdrawalsByAddress(ctx context.Context, from common.Address) ([]types.Withdrawal, error)
	GetMessagesByTransaction(ctx context.Context, txHash common.Hash, direction types.Direction) ([]types.Message, error)
	GetMessageStatus(ctx context.Context, message types.Message) (types.MessageStatus, error)
}

// Receipts resolves L2 to L1 messages straight from an L2 transaction receipt.
type Receipts interface {
	MessagesByTransaction(ctx context.Context, txHash common.Hash) ([]types.Message, error)
}

// Submitter sends signed L1 transactions to the bridge contracts.
type Submitter interface {
	DepositETH(ctx context.Context, amount *big.Int) (*gethtypes.Transaction, error)
	FinalizeWithdrawal(ctx context.Context, message types.Message) (*gethtypes.Transaction, error)
}

// Messenger implements Gateway on top of the bridge index, the L2 chain
// and an optional L1 submitter.
type Messenger struct {
	index     Index
	receipts  Receipts
	submitter Submitter
	logger    *slog.Logger
}

type MessengerOpts struct {
	Index     Index
	Receipts  Receipts
	Submitter Submitter
	Logger    *slog.Logger
}

var _ Gateway = &Messenger{}

func NewMessenger(opts MessengerOpts) *Messenger {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Messenger{
		index:     opts.Index,
		receipts:  opts.Receipts,
		submitter: opts.Submitter,
		logger:    opts.Logger,
	}
}

func (m *Messenger) GetDepositsByAddress(ctx context.Context, address common.Address) ([]types.Deposit, error) {
	if m.index == nil {
		return nil, ErrNotInitialized
	}
	defer observe("get_deposits", time.Now())

	deposits, err := m.index.GetDepositsByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposits by address: %w", err)
	}
	return deposits, nil
}

func (m *Messenger) GetWithdrawalsByAddress(ctx context.Context, address common.Address) ([]types.Withdrawal, error) {
	if m.index == nil {
		return nil, ErrNotInitialized
	}
	defer observe("get_withdrawals", time.Now())

	withdrawals, err := m.index.GetWithdrawalsByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals by address: %w", err)
	}
	return withdrawals, nil
}

// GetMessagesByTransaction returns the messages sent by txHash in the given
// direction, ordered by log index. L2 to L1 messages the indexer has not
// picked up yet are read from the L2 receipt.
func (m *Messenger) GetMessagesByTransaction(ctx context.Context, txHash common.Hash, direction types.Direction) ([]types.Message, error) {
	if m.index == nil {
		return nil, ErrNotInitialized
	}
	defer observe("get_messages", time.Now())

	messages, err := m.index.GetMessagesByTransaction(ctx, txHash, direction)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages by transaction: %w", err)
	}
	if len(messages) > 0 || direction != types.L2ToL1 || m.receipts == nil {
		return messages, nil
	}

	messages, err = m.receipts.MessagesByTransaction(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages from receipt: %w", err)
	}
	if len(messages) > 0 {
		m.logger.Debug("messages not indexed yet, using receipt", "txHash", txHash.Hex(), "count", len(messages))
	}
	return messages, nil
}

// GetMessageStatus returns the status recorded by the indexer. A message the
// indexer has never seen is at the start of its lifecycle.
func (m *Messenger) GetMessageStatus(ctx context.Context, message types.Message) (types.MessageStatus, error) {
	if m.index == nil {
		return "", ErrNotInitialized
	}
	defer observe("get_message_status", time.Now())

	status, err := m.index.GetMessageStatus(ctx, message)
	if errors.Is(err, database.ErrNotFound) {
		return initialStatus(message.Direction), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get message status: %w", err)
	}
	return status, nil
}

func (m *Messenger) DepositETH(ctx context.Context, amount *big.Int) (*types.Submission, error) {
	if m.submitter == nil {
		return nil, ErrNoSigner
	}
	defer observe("deposit_eth", time.Now())

	tx, err := m.submitter.DepositETH(ctx, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to deposit ETH: %w", err)
	}

	m.logger.Info("deposit submitted", "txHash", tx.Hash().Hex(), "amount", amount.String())
	return &types.Submission{TxHash: tx.Hash(), Nonce: tx.Nonce()}, nil
}

func (m *Messenger) FinalizeMessage(ctx context.Context, message types.Message) (*types.Submission, error) {
	if m.submitter == nil {
		return nil, ErrNoSigner
	}
	if message.Direction != types.L2ToL1 {
		return nil, fmt.Errorf("cannot finalize %s message %s", message.Direction, message.MessageHash.Hex())
	}
	defer observe("finalize_message", time.Now())

	tx, err := m.submitter.FinalizeWithdrawal(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize withdrawal: %w", err)
	}

	m.logger.Info("finalization submitted", "txHash", tx.Hash().Hex(), "withdrawalHash", message.WithdrawalHash.Hex())
	return &types.Submission{TxHash: tx.Hash(), Nonce: tx.Nonce()}, nil
}

func initialStatus(direction types.Direction) types.MessageStatus {
	if direction == types.L1ToL2 {
		return types.UnconfirmedL1ToL2Message
	}
	return types.StateRootNotPublished
}

func observe(call string, start time.Time) {
	metrics.GatewayCallDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())
}
