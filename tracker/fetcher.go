package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lightlink-network/ll-bridge-tracker/bridge"
	"github.com/lightlink-network/ll-bridge-tracker/types"
)

// FetchDeposits returns the complete current deposit set of account. A
// gateway that is not ready yet yields an empty set.
func FetchDeposits(ctx context.Context, gw bridge.Gateway, account common.Address) ([]types.Deposit, error) {
	if gw == nil {
		return []types.Deposit{}, nil
	}

	deposits, err := gw.GetDepositsByAddress(ctx, account)
	if errors.Is(err, bridge.ErrNotInitialized) {
		return []types.Deposit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deposits: %w", err)
	}
	return deposits, nil
}

// FetchWithdrawals returns the complete current withdrawal set of account.
// A gateway that is not ready yet yields an empty set.
func FetchWithdrawals(ctx context.Context, gw bridge.Gateway, account common.Address) ([]types.Withdrawal, error) {
	if gw == nil {
		return []types.Withdrawal{}, nil
	}

	withdrawals, err := gw.GetWithdrawalsByAddress(ctx, account)
	if errors.Is(err, bridge.ErrNotInitialized) {
		return []types.Withdrawal{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch withdrawals: %w", err)
	}
	return withdrawals, nil
}
