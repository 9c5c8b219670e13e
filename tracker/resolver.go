package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lightlink-network/ll-bridge-tracker/bridge"
	"github.com/lightlink-network/ll-bridge-tracker/metrics"
	"github.com/lightlink-network/ll-bridge-tracker/types"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 4
	defaultCallTimeout = 30 * time.Second
)

// Resolver maps withdrawals to their bridge message and its status.
type Resolver struct {
	concurrency int
	callTimeout time.Duration
	logger      *slog.Logger
}

type ResolverOpts struct {
	Concurrency int
	CallTimeout time.Duration
	Logger      *slog.Logger
}

func NewResolver(opts ResolverOpts) *Resolver {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}

	return &Resolver{
		concurrency: opts.Concurrency,
		callTimeout: opts.CallTimeout,
		logger:      opts.Logger,
	}
}

// Resolve builds one transfer per withdrawal, in input order. Only the first
// message of a transaction (lowest log index) is considered. Withdrawals
// without a message yet are left out. Any other failure fails the whole set.
func (r *Resolver) Resolve(ctx context.Context, gw bridge.Gateway, withdrawals []types.Withdrawal) ([]types.Transfer, error) {
	if len(withdrawals) == 0 {
		return []types.Transfer{}, nil
	}
	if gw == nil {
		return nil, bridge.ErrNotInitialized
	}

	resolved := make([]*types.Transfer, len(withdrawals))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, w := range withdrawals {
		g.Go(func() error {
			t, err := r.resolve(gctx, gw, w)
			if err != nil {
				return err
			}
			resolved[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	transfers := make([]types.Transfer, 0, len(resolved))
	for _, t := range resolved {
		if t != nil {
			transfers = append(transfers, *t)
		}
	}
	return transfers, nil
}

func (r *Resolver) resolve(ctx context.Context, gw bridge.Gateway, w types.Withdrawal) (*types.Transfer, error) {
	messages, err := call(ctx, r.callTimeout, func(ctx context.Context) ([]types.Message, error) {
		return gw.GetMessagesByTransaction(ctx, w.TxHash, types.L2ToL1)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get messages for withdrawal %s: %w", w.TxHash.Hex(), err)
	}
	if len(messages) == 0 {
		metrics.LookupMisses.Inc()
		r.logger.Debug("no bridge message for withdrawal yet", "txHash", w.TxHash.Hex())
		return nil, nil
	}

	message := messages[0]
	status, err := call(ctx, r.callTimeout, func(ctx context.Context) (types.MessageStatus, error) {
		return gw.GetMessageStatus(ctx, message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get message status for withdrawal %s: %w", w.TxHash.Hex(), err)
	}
	if !status.Known() {
		r.logger.Warn("unknown message status", "txHash", w.TxHash.Hex(), "status", status)
	}

	return &types.Transfer{
		ID:      w.TxHash,
		To:      w.To,
		Amount:  w.Amount,
		Status:  status,
		Message: message,
	}, nil
}

// call runs fn with a deadline and gives up when it passes, even if fn
// ignores its context.
func call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case res := <-done:
		return res.v, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
