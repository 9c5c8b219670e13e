package lightlink

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/lightlink-network/ll-bridge-tracker/types"
	"github.com/lightlink-network/ll-bridge-tracker/utils"
)

const messagePasserABI = `[{"anonymous":false,"inputs":[{"indexed":true,"internalType":"uint256","name":"nonce","type":"uint256"},{"indexed":true,"internalType":"address","name":"sender","type":"address"},{"indexed":true,"internalType":"address","name":"target","type":"address"},{"indexed":false,"internalType":"uint256","name":"value","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"gasLimit","type":"uint256"},{"indexed":false,"internalType":"bytes","name":"data","type":"bytes"},{"indexed":false,"internalType":"bytes32","name":"withdrawalHash","type":"bytes32"}],"name":"MessagePassed","type":"event"}]`

var passerABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(messagePasserABI))
	if err != nil {
		panic(fmt.Sprintf("failed to parse L2ToL1MessagePasser abi: %v", err))
	}
	return parsed
}()

// MessagesByTransaction returns the L2 to L1 messages emitted by txHash,
// ordered by log index. A transaction that is not mined yet has none.
func (c *Client) MessagesByTransaction(ctx context.Context, txHash common.Hash) ([]types.Message, error) {
	receipt, err := utils.Retry(ctx, maxRetries, retryDelay, "get transaction receipt", func() (*gethtypes.Receipt, error) {
		r, err := c.client.TransactionReceipt(ctx, txHash)
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return r, err
	})
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return []types.Message{}, nil
	}

	return parseMessagePassed(receipt.Logs, c.Opts.L2ToL1MessagePasserAddress)
}

func parseMessagePassed(logs []*gethtypes.Log, passer common.Address) ([]types.Message, error) {
	event := passerABI.Events["MessagePassed"]

	messages := []types.Message{}
	for _, log := range logs {
		if log.Address != passer || len(log.Topics) != 4 || log.Topics[0] != event.ID {
			continue
		}

		fields := map[string]interface{}{}
		if err := passerABI.UnpackIntoMap(fields, event.Name, log.Data); err != nil {
			return nil, fmt.Errorf("failed to unpack MessagePassed at log %d: %w", log.Index, err)
		}

		withdrawalHash := common.Hash(fields["withdrawalHash"].([32]byte))
		messages = append(messages, types.Message{
			Direction:      types.L2ToL1,
			TxHash:         log.TxHash,
			LogIndex:       log.Index,
			MessageHash:    withdrawalHash,
			WithdrawalHash: withdrawalHash,
			Nonce:          new(big.Int).SetBytes(log.Topics[1].Bytes()),
			Sender:         common.BytesToAddress(log.Topics[2].Bytes()),
			Target:         common.BytesToAddress(log.Topics[3].Bytes()),
			Value:          fields["value"].(*big.Int),
			GasLimit:       fields["gasLimit"].(*big.Int),
			Data:           fields["data"].([]byte),
			BlockNumber:    log.BlockNumber,
		})
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].LogIndex < messages[j].LogIndex
	})
	return messages, nil
}
