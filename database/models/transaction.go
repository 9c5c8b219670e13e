package models

import "time"

// Transaction is a deposit or withdrawal document written by the bridge
// indexer. One document is stored per cross-domain message, so a
// transaction that sends several messages has several documents sharing
// TxHash and ordered by LogIndex.
type Transaction struct {
	Type           string    `json:"type" bson:"type"` // "deposit" or "withdrawal"
	ERC20          bool      `json:"erc20" bson:"erc20"`
	From           string    `json:"from" bson:"from"`
	To             string    `json:"to" bson:"to"`
	Value          string    `json:"value" bson:"value"`
	L1Token        string    `json:"l1_token,omitempty" bson:"l1_token,omitempty"`
	L2Token        string    `json:"l2_token,omitempty" bson:"l2_token,omitempty"`
	Message        string    `json:"message,omitempty" bson:"message,omitempty"`
	MessageHash    string    `json:"message_hash,omitempty" bson:"message_hash,omitempty"`
	MessageNonce   string    `json:"message_nonce,omitempty" bson:"message_nonce,omitempty"`
	Sender         string    `json:"sender,omitempty" bson:"sender,omitempty"`
	Target         string    `json:"target,omitempty" bson:"target,omitempty"`
	GasLimit       string    `json:"gas_limit,omitempty" bson:"gas_limit,omitempty"`
	WithdrawalHash string    `json:"withdrawal_hash,omitempty" bson:"withdrawal_hash,omitempty"`
	TxHash         string    `json:"tx_hash" bson:"tx_hash"`
	LogIndex       uint      `json:"log_index" bson:"log_index"`
	L1TxHash       string    `json:"l1_tx_hash,omitempty" bson:"l1_tx_hash,omitempty"`
	BlockNumber    uint64    `json:"block_number" bson:"block_number"`
	BlockHash      string    `json:"block_hash" bson:"block_hash"`
	BlockTime      uint64    `json:"block_time" bson:"block_time"`
	Status         string    `json:"status" bson:"status"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}
