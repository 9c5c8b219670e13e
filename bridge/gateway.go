package bridge

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lightlink-network/ll-bridge-tracker/types"
)

var (
	// ErrNotInitialized is returned by reads made before the gateway has a
	// connection to the bridge index.
	ErrNotInitialized = errors.New("bridge gateway not initialized")

	// ErrNoSigner is returned by submissions when no L1 signer is bound.
	ErrNoSigner = errors.New("no L1 signer bound to bridge gateway")
)

// Gateway is the bridge collaborator used by the tracker.
type Gateway interface {
	GetDepositsByAddress(ctx context.Context, address common.Address) ([]types.Deposit, error)
	GetWithdrawalsByAddress(ctx context.Context, address common.Address) ([]types.Withdrawal, error)
	GetMessagesByTransaction(ctx context.Context, txHash common.Hash, direction types.Direction) ([]types.Message, error)
	GetMessageStatus(ctx context.Context, message types.Message) (types.MessageStatus, error)
	DepositETH(ctx context.Context, amount *big.Int) (*types.Submission, error)
	FinalizeMessage(ctx context.Context, message types.Message) (*types.Submission, error)
}
