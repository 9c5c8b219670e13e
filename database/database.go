package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrNotFound is returned when a lookup by hash matches no document.
var ErrNotFound = errors.New("not found")

const (
	transactionsCollection          = "transactions"
	transactionsProvenCollection    = "transactions_proven"
	transactionsFinalizedCollection = "transactions_finalized"
	lastIndexedBlockCollection      = "last_indexed_block"
)

// Database is a read-mostly view of the bridge indexer's database.
type Database struct {
	client       *mongo.Client
	databaseName string
	logger       *slog.Logger
}

type DatabaseOpts struct {
	URI          string
	DatabaseName string
	Logger       *slog.Logger
}

const (
	defaultBatchSize = 1000
	defaultTimeout   = 10 * time.Second
)

func NewDatabase(opts DatabaseOpts) (*Database, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetMaxPoolSize(50).
		SetMinPoolSize(2).
		SetMaxConnecting(10).
		SetServerSelectionTimeout(5 * time.Second).
		SetReadPreference(readpref.PrimaryPreferred())

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	opts.Logger.Info("Connected to database", "database", opts.DatabaseName)

	return &Database{
		client:       client,
		databaseName: opts.DatabaseName,
		logger:       opts.Logger,
	}, nil
}

func (db *Database) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// CreateIndexes makes sure the lookups the tracker runs are covered. The
// indexer owns the collections; creating an index that already exists is a
// no-op.
func (db *Database) CreateIndexes(ctx context.Context) error {
	_, err := db.collection(transactionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "from", Value: 1}, {Key: "block_number", Value: -1}}},
		{Keys: bson.D{{Key: "tx_hash", Value: 1}, {Key: "log_index", Value: 1}}},
		{Keys: bson.D{{Key: "message_hash", Value: 1}}},
		{Keys: bson.D{{Key: "withdrawal_hash", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create transactions indexes: %w", err)
	}

	for _, name := range []string{transactionsProvenCollection, transactionsFinalizedCollection} {
		_, err := db.collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "withdrawal_hash", Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("failed to create %s index: %w", name, err)
		}
	}

	return nil
}

func (db *Database) collection(name string) *mongo.Collection {
	return db.client.Database(db.databaseName).Collection(name)
}

// findOne decodes the first document matching filter into v, mapping a
// missing document to ErrNotFound.
func (db *Database) findOne(ctx context.Context, collection string, filter bson.D, v interface{}) error {
	err := db.collection(collection).FindOne(ctx, filter).Decode(v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
