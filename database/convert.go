package database

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lightlink-network/ll-bridge-tracker/database/models"
	"github.com/lightlink-network/ll-bridge-tracker/types"
)

func toDeposit(tx models.Transaction) (types.Deposit, error) {
	amount, err := parseAmount(tx.Value)
	if err != nil {
		return types.Deposit{}, err
	}

	return types.Deposit{
		TxHash:      common.HexToHash(tx.TxHash),
		From:        common.HexToAddress(tx.From),
		To:          common.HexToAddress(tx.To),
		Amount:      amount,
		BlockNumber: tx.BlockNumber,
	}, nil
}

func toWithdrawal(tx models.Transaction) (types.Withdrawal, error) {
	amount, err := parseAmount(tx.Value)
	if err != nil {
		return types.Withdrawal{}, err
	}

	return types.Withdrawal{
		TxHash:      common.HexToHash(tx.TxHash),
		From:        common.HexToAddress(tx.From),
		To:          common.HexToAddress(tx.To),
		Amount:      amount,
		BlockNumber: tx.BlockNumber,
	}, nil
}

func toMessage(tx models.Transaction, direction types.Direction) (types.Message, error) {
	if tx.MessageHash == "" {
		return types.Message{}, fmt.Errorf("missing message hash")
	}

	message := types.Message{
		Direction:   direction,
		TxHash:      common.HexToHash(tx.TxHash),
		LogIndex:    tx.LogIndex,
		MessageHash: common.HexToHash(tx.MessageHash),
		Sender:      common.HexToAddress(tx.Sender),
		Target:      common.HexToAddress(tx.Target),
		Data:        common.FromHex(tx.Message),
		BlockNumber: tx.BlockNumber,
	}
	if tx.WithdrawalHash != "" {
		message.WithdrawalHash = common.HexToHash(tx.WithdrawalHash)
	}

	var err error
	if message.Nonce, err = parseOptional(tx.MessageNonce); err != nil {
		return types.Message{}, fmt.Errorf("invalid nonce: %w", err)
	}
	if message.Value, err = parseAmount(tx.Value); err != nil {
		return types.Message{}, err
	}
	if message.GasLimit, err = parseOptional(tx.GasLimit); err != nil {
		return types.Message{}, fmt.Errorf("invalid gas limit: %w", err)
	}

	return message, nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

func parseOptional(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return parseAmount(s)
}
