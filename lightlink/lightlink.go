package lightlink

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/lightlink-network/ll-bridge-tracker/utils"
)

const (
	maxRetries = 5
	retryDelay = 2 * time.Second
)

// Client is the L2 (destination domain) connection.
type Client struct {
	client  *ethclient.Client
	chainId *big.Int
	logger  *slog.Logger
	Opts    *ClientOpts
}

type ClientOpts struct {
	Endpoint                   string
	L2ToL1MessagePasserAddress common.Address
	Logger                     *slog.Logger
}

// NewClient returns a new LightLink client over HTTP.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	client, err := ethclient.Dial(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LightLink: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	chainId, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chainId: %w", err)
	}

	opts.Logger.Info("Connected to LightLink", "chainId", chainId)

	// Warn user if the contracts are not found at the given addresses.
	if ok, _ := utils.IsContract(ctx, client, opts.L2ToL1MessagePasserAddress); !ok {
		opts.Logger.Warn("contract not found for L2ToL1MessagePasser at given Address", "address", opts.L2ToL1MessagePasserAddress.Hex(), "endpoint", opts.Endpoint)
	}

	return &Client{
		client:  client,
		chainId: chainId,
		logger:  opts.Logger,
		Opts:    &opts,
	}, nil
}

func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainId)
}

// BalanceAt returns the latest L2 balance of account.
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return utils.Retry(ctx, maxRetries, retryDelay, "get balance", func() (*big.Int, error) {
		return c.client.BalanceAt(ctx, account, nil)
	})
}

func (c *Client) Close() {
	c.client.Close()
}
