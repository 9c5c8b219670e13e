package ethereum

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

// Client is the L1 (origin domain) connection.
type Client struct {
	client  *ethclient.Client
	chainId *big.Int
	logger  *slog.Logger
	Opts    *ClientOpts
}

type ClientOpts struct {
	Endpoint                string
	L1StandardBridgeAddress common.Address
	LightLinkPortalAddress  common.Address
	Logger                  *slog.Logger
	PollInterval            time.Duration
	MinGasLimit             uint32
}

// NewClient dials the L1 endpoint over HTTP or websocket.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 12 * time.Second
	}

	client, err := ethclient.Dial(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	chainId, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chainId: %w", err)
	}

	opts.Logger.Info("Connected to Ethereum", "chainId", chainId)

	// Warn user if the contracts are not found at the given addresses.
	if ok, _ := utils.IsContract(ctx, client, opts.L1StandardBridgeAddress); !ok {
		opts.Logger.Warn("contract not found for L1StandardBridge at given Address", "address", opts.L1StandardBridgeAddress.Hex(), "endpoint", opts.Endpoint)
	}
	if ok, _ := utils.IsContract(ctx, client, opts.LightLinkPortalAddress); !ok {
		opts.Logger.Warn("contract not found for LightLinkPortal at given Address", "address", opts.LightLinkPortalAddress.Hex(), "endpoint", opts.Endpoint)
	}

	return &Client{
		client:  client,
		chainId: chainId,
		logger:  opts.Logger,
		Opts:    &opts,
	}, nil
}

// ChainID is the chain id reported by the endpoint when the client connected.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainId)
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return utils.Retry(ctx, maxRetries, retryDelay, "get block number", func() (uint64, error) {
		return c.client.BlockNumber(ctx)
	})
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return utils.Retry(ctx, maxRetries, retryDelay, "get balance", func() (*big.Int, error) {
		return c.client.BalanceAt(ctx, account, nil)
	})
}

func (c *Client) Close() {
	c.client.Close()
}
