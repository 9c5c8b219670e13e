package ethereum

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type blockReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

type balanceReader interface {
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
}

// WatchBlocks calls fn with the chain head every time it changes, polling
// every PollInterval. A head that moves back after a reorg is reported too.
// Several blocks produced between two polls are reported once, with the
// newest number. It returns when ctx is done.
func (c *Client) WatchBlocks(ctx context.Context, fn func(blockNumber uint64)) error {
	return watchBlocks(ctx, c, c.Opts.PollInterval, c.logger, fn)
}

// WatchBalance calls fn whenever the balance of the account returned by
// accountFn changes. The first balance read for an account is its baseline
// and is not reported.
func (c *Client) WatchBalance(ctx context.Context, accountFn func() common.Address, fn func(balance *big.Int)) error {
	return watchBalance(ctx, c, accountFn, c.Opts.PollInterval, c.logger, fn)
}

func watchBlocks(ctx context.Context, r blockReader, interval time.Duration, logger *slog.Logger, fn func(uint64)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last uint64
	for {
		head, err := r.BlockNumber(ctx)
		switch {
		case err != nil:
			if ctx.Err() == nil {
				logger.Warn("failed to poll ethereum head", "error", err)
			}
		case head != last:
			switch {
			case head < last:
				logger.Info("ethereum head moved back", "from", last, "to", head)
			case last != 0 && head > last+1:
				logger.Debug("skipped ethereum blocks between polls", "from", last+1, "to", head-1)
			}
			last = head
			fn(head)
		}

		select {
		case <-ctx.Done():
			logger.Info("shutting down ethereum block watcher")
			return nil
		case <-ticker.C:
		}
	}
}

func watchBalance(ctx context.Context, r balanceReader, accountFn func() common.Address, interval time.Duration, logger *slog.Logger, fn func(*big.Int)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		account common.Address
		last    *big.Int
	)
	for {
		if current := accountFn(); current != account {
			account, last = current, nil
		}

		if account != (common.Address{}) {
			balance, err := r.BalanceAt(ctx, account)
			switch {
			case err != nil:
				if ctx.Err() == nil {
					logger.Warn("failed to poll balance", "account", account.Hex(), "error", err)
				}
			case last == nil:
				last = balance
			case balance.Cmp(last) != 0:
				last = balance
				fn(balance)
			}
		}

		select {
		case <-ctx.Done():
			logger.Info("shutting down balance watcher")
			return nil
		case <-ticker.C:
		}
	}
}
