package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lightlink-network/ll-bridge-tracker/database/models"
	"github.com/lightlink-network/ll-bridge-tracker/types"
	"go.mongodb.org/mongo-driver/bson"
)

// GetMessageStatus returns the current status of a message. The status the
// indexer stored on the transaction can lag behind the proven and finalized
// events, which are indexed separately, so those records take precedence.
// Returns ErrNotFound if the message has not been indexed.
func (db *Database) GetMessageStatus(ctx context.Context, message types.Message) (types.MessageStatus, error) {
	var tx models.Transaction
	if err := db.findOne(ctx, transactionsCollection, messageFilter(message), &tx); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to get message transaction: %w", err)
	}

	if message.Direction != types.L2ToL1 || tx.WithdrawalHash == "" {
		return types.MessageStatus(tx.Status), nil
	}

	finalized, err := db.GetTransactionFinalizedByHash(ctx, tx.WithdrawalHash)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}

	var proven *models.TransactionProven
	if finalized == nil {
		proven, err = db.GetTransactionProvenByHash(ctx, tx.WithdrawalHash)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}

	return reconcileStatus(types.MessageStatus(tx.Status), proven != nil, finalized != nil), nil
}

func messageFilter(message types.Message) bson.D {
	if message.Direction == types.L2ToL1 && message.WithdrawalHash != (common.Hash{}) {
		return bson.D{{Key: "withdrawal_hash", Value: message.WithdrawalHash.Hex()}}
	}
	return bson.D{{Key: "message_hash", Value: message.MessageHash.Hex()}}
}

// reconcileStatus folds the proven and finalized events into a withdrawal's
// stored status. A proven withdrawal is at least in its challenge period and
// a finalized one has been relayed.
func reconcileStatus(stored types.MessageStatus, proven, finalized bool) types.MessageStatus {
	switch {
	case finalized:
		return types.Relayed
	case proven && (stored == types.StateRootNotPublished || stored == types.ReadyToProve):
		return types.InChallengePeriod
	default:
		return stored
	}
}
