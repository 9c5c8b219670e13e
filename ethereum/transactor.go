package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/lightlink-network/ll-bridge-tracker/types"
)

const l1StandardBridgeABI = `[{"inputs":[{"internalType":"uint32","name":"_minGasLimit","type":"uint32"},{"internalType":"bytes","name":"_extraData","type":"bytes"}],"name":"depositETH","outputs":[],"stateMutability":"payable","type":"function"}]`

const lightLinkPortalABI = `[{"inputs":[{"components":[{"internalType":"uint256","name":"nonce","type":"uint256"},{"internalType":"address","name":"sender","type":"address"},{"internalType":"address","name":"target","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"uint256","name":"gasLimit","type":"uint256"},{"internalType":"bytes","name":"data","type":"bytes"}],"internalType":"struct Types.WithdrawalTransaction","name":"_tx","type":"tuple"}],"name":"finalizeWithdrawalTransaction","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

var (
	bridgeABI = mustParseABI(l1StandardBridgeABI)
	portalABI = mustParseABI(lightLinkPortalABI)
)

var errIncompleteMessage = errors.New("message is missing withdrawal transaction fields")

// withdrawalTransaction mirrors Types.WithdrawalTransaction in the portal.
type withdrawalTransaction struct {
	Nonce    *big.Int
	Sender   common.Address
	Target   common.Address
	Value    *big.Int
	GasLimit *big.Int
	Data     []byte
}

// Transactor sends the account's bridge transactions on L1.
type Transactor struct {
	signer      *Signer
	bridge      *bind.BoundContract
	portal      *bind.BoundContract
	minGasLimit uint32
}

// NewTransactor binds the bridge contracts to signer.
func (c *Client) NewTransactor(signer *Signer) *Transactor {
	return &Transactor{
		signer:      signer,
		bridge:      bind.NewBoundContract(c.Opts.L1StandardBridgeAddress, bridgeABI, c.client, c.client, c.client),
		portal:      bind.NewBoundContract(c.Opts.LightLinkPortalAddress, portalABI, c.client, c.client, c.client),
		minGasLimit: c.Opts.MinGasLimit,
	}
}

// DepositETH bridges amount wei to the same address on L2.
func (t *Transactor) DepositETH(ctx context.Context, amount *big.Int) (*gethtypes.Transaction, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid deposit amount %v", amount)
	}

	opts, err := t.signer.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	opts.Value = amount

	tx, err := t.bridge.Transact(opts, "depositETH", t.minGasLimit, []byte{})
	if err != nil {
		return nil, fmt.Errorf("failed to send depositETH: %w", err)
	}
	return tx, nil
}

// FinalizeWithdrawal relays a proven withdrawal whose challenge period is over.
func (t *Transactor) FinalizeWithdrawal(ctx context.Context, message types.Message) (*gethtypes.Transaction, error) {
	wtx, err := toWithdrawalTransaction(message)
	if err != nil {
		return nil, err
	}

	opts, err := t.signer.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := t.portal.Transact(opts, "finalizeWithdrawalTransaction", wtx)
	if err != nil {
		return nil, fmt.Errorf("failed to send finalizeWithdrawalTransaction: %w", err)
	}
	return tx, nil
}

func toWithdrawalTransaction(message types.Message) (withdrawalTransaction, error) {
	if message.Nonce == nil || message.Value == nil || message.GasLimit == nil {
		return withdrawalTransaction{}, errIncompleteMessage
	}

	return withdrawalTransaction{
		Nonce:    message.Nonce,
		Sender:   message.Sender,
		Target:   message.Target,
		Value:    message.Value,
		GasLimit: message.GasLimit,
		Data:     message.Data,
	}, nil
}

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("failed to parse contract abi: %v", err))
	}
	return parsed
}
