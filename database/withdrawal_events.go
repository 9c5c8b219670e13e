package database

import (
	"context"
	"fmt"

	"github.com/lightlink-network/ll-bridge-tracker/database/models"
	"go.mongodb.org/mongo-driver/bson"
)

// GetTransactionProvenByHash gets the proven record of a withdrawal by its withdrawal hash
func (db *Database) GetTransactionProvenByHash(ctx context.Context, withdrawalHash string) (*models.TransactionProven, error) {
	var proven models.TransactionProven
	filter := bson.D{{Key: "withdrawal_hash", Value: withdrawalHash}}
	if err := db.findOne(ctx, transactionsProvenCollection, filter, &proven); err != nil {
		return nil, fmt.Errorf("failed to get transaction proven by hash: %w", err)
	}
	return &proven, nil
}

// GetTransactionFinalizedByHash gets the finalized record of a withdrawal by its withdrawal hash
func (db *Database) GetTransactionFinalizedByHash(ctx context.Context, withdrawalHash string) (*models.TransactionFinalized, error) {
	var finalized models.TransactionFinalized
	filter := bson.D{{Key: "withdrawal_hash", Value: withdrawalHash}}
	if err := db.findOne(ctx, transactionsFinalizedCollection, filter, &finalized); err != nil {
		return nil, fmt.Errorf("failed to get transaction finalized by hash: %w", err)
	}
	return &finalized, nil
}
