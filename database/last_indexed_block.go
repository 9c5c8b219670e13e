package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/lightlink-network/ll-bridge-tracker/database/models"
	"go.mongodb.org/mongo-driver/bson"
)

// GetLastIndexedBlock returns how far the indexer got on a chain, 0 if it
// has not indexed that chain yet.
func (db *Database) GetLastIndexedBlock(ctx context.Context, chain string) (uint64, error) {
	var result models.LastIndexedBlock
	err := db.findOne(ctx, lastIndexedBlockCollection, bson.D{{Key: "chain", Value: chain}}, &result)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get last indexed block: %w", err)
	}

	db.logger.Debug("last indexed block", "chain", chain, "blockNumber", result.BlockNumber)

	return result.BlockNumber, nil
}
