package database

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lightlink-network/ll-bridge-tracker/database/models"
	"github.com/lightlink-network/ll-bridge-tracker/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetDepositsByAddress returns the deposits sent from an address, newest first.
func (db *Database) GetDepositsByAddress(ctx context.Context, from common.Address) ([]types.Deposit, error) {
	txs, err := db.getTransactionsByAddress(ctx, "deposit", from)
	if err != nil {
		return nil, err
	}

	deposits := make([]types.Deposit, 0, len(txs))
	for _, tx := range dedupeByTxHash(txs) {
		deposit, err := toDeposit(tx)
		if err != nil {
			db.logger.Warn("skipping malformed deposit", "txHash", tx.TxHash, "error", err)
			continue
		}
		deposits = append(deposits, deposit)
	}

	return deposits, nil
}

// GetWithdrawalsByAddress returns the withdrawals sent from an address, newest first.
func (db *Database) GetWithdrawalsByAddress(ctx context.Context, from common.Address) ([]types.Withdrawal, error) {
	txs, err := db.getTransactionsByAddress(ctx, "withdrawal", from)
	if err != nil {
		return nil, err
	}

	withdrawals := make([]types.Withdrawal, 0, len(txs))
	for _, tx := range dedupeByTxHash(txs) {
		withdrawal, err := toWithdrawal(tx)
		if err != nil {
			db.logger.Warn("skipping malformed withdrawal", "txHash", tx.TxHash, "error", err)
			continue
		}
		withdrawals = append(withdrawals, withdrawal)
	}

	return withdrawals, nil
}

// GetMessagesByTransaction returns every message a transaction sent in the
// given direction, ordered by log index.
func (db *Database) GetMessagesByTransaction(ctx context.Context, txHash common.Hash, direction types.Direction) ([]types.Message, error) {
	filter := bson.D{
		{Key: "tx_hash", Value: txHash.Hex()},
		{Key: "type", Value: direction.TxType()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "log_index", Value: 1}})

	txs, err := db.findTransactions(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages by transaction: %w", err)
	}

	messages := make([]types.Message, 0, len(txs))
	for _, tx := range txs {
		message, err := toMessage(tx, direction)
		if err != nil {
			db.logger.Warn("skipping malformed message", "txHash", tx.TxHash, "logIndex", tx.LogIndex, "error", err)
			continue
		}
		messages = append(messages, message)
	}

	return messages, nil
}

func (db *Database) getTransactionsByAddress(ctx context.Context, txType string, from common.Address) ([]models.Transaction, error) {
	filter := bson.D{
		{Key: "type", Value: txType},
		{Key: "from", Value: from.Hex()},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "block_number", Value: -1}, {Key: "log_index", Value: 1}}).
		SetBatchSize(defaultBatchSize)

	txs, err := db.findTransactions(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get %ss by address: %w", txType, err)
	}
	return txs, nil
}

func (db *Database) findTransactions(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]models.Transaction, error) {
	cursor, err := db.collection(transactionsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var txs []models.Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return txs, nil
}

// dedupeByTxHash keeps the first document of each transaction. Documents are
// stored per message, a transfer is listed once.
func dedupeByTxHash(txs []models.Transaction) []models.Transaction {
	seen := make(map[string]struct{}, len(txs))
	out := txs[:0:0]
	for _, tx := range txs {
		if _, ok := seen[tx.TxHash]; ok {
			continue
		}
		seen[tx.TxHash] = struct{}{}
		out = append(out, tx)
	}
	return out
}
