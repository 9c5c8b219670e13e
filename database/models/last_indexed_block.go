package models

// LastIndexedBlock is the indexer's progress on one chain. The tracker
// reports it to show how far behind the chain head the index is.
type LastIndexedBlock struct {
	Chain       string `json:"chain" bson:"chain"`
	BlockNumber uint64 `json:"block_number" bson:"block_number"`
}
