package models

// TransactionProven is the L1 WithdrawalProven event for a withdrawal. The
// indexer stores it apart from the withdrawal itself because the event can
// be indexed before the L2 transaction that initiated the withdrawal.
type TransactionProven struct {
	WithdrawalHash string `json:"withdrawal_hash" bson:"withdrawal_hash"`
	TxHash         string `json:"tx_hash" bson:"tx_hash"`
	BlockNumber    uint64 `json:"block_number" bson:"block_number"`
	Timestamp      uint64 `json:"timestamp" bson:"timestamp"`
	L2OutputIndex  uint64 `json:"l2_output_index" bson:"l2_output_index"`
}

// TransactionFinalized is the L1 WithdrawalFinalized event for a withdrawal.
type TransactionFinalized struct {
	WithdrawalHash string `json:"withdrawal_hash" bson:"withdrawal_hash"`
	TxHash         string `json:"tx_hash" bson:"tx_hash"`
	BlockNumber    uint64 `json:"block_number" bson:"block_number"`
	Timestamp      uint64 `json:"timestamp" bson:"timestamp"`
	Success        bool   `json:"success" bson:"success"`
}
