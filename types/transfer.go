package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Deposit is an L1 to L2 transfer initiated by an account.
type Deposit struct {
	TxHash      common.Hash    `json:"tx_hash"`
	From        common.Address `json:"from"`
	To          common.Address `json:"to"`
	Amount      *big.Int       `json:"amount"`
	BlockNumber uint64         `json:"block_number"`
}

// Withdrawal is an L2 to L1 transfer. TxHash is the L2 transaction that
// initiated it.
type Withdrawal struct {
	TxHash      common.Hash    `json:"tx_hash"`
	From        common.Address `json:"from"`
	To          common.Address `json:"to"`
	Amount      *big.Int       `json:"amount"`
	BlockNumber uint64         `json:"block_number"`
}

// Message identifies one cross-domain message emitted by a bridge
// transaction. For L2 to L1 messages it carries the withdrawal transaction
// fields needed to finalize it on L1.
type Message struct {
	Direction      Direction      `json:"direction"`
	TxHash         common.Hash    `json:"tx_hash"`
	LogIndex       uint           `json:"log_index"`
	MessageHash    common.Hash    `json:"message_hash"`
	WithdrawalHash common.Hash    `json:"withdrawal_hash,omitempty"`
	Nonce          *big.Int       `json:"nonce"`
	Sender         common.Address `json:"sender"`
	Target         common.Address `json:"target"`
	Value          *big.Int       `json:"value"`
	GasLimit       *big.Int       `json:"gas_limit"`
	Data           []byte         `json:"data"`
	BlockNumber    uint64         `json:"block_number"`
}

// Transfer is a withdrawal joined with its message and the message's status
// as of the reconciliation cycle that produced it.
type Transfer struct {
	ID      common.Hash    `json:"id"`
	To      common.Address `json:"to"`
	Amount  *big.Int       `json:"amount"`
	Status  MessageStatus  `json:"status"`
	Message Message        `json:"message"`
}

// Submission is the result of a transaction sent on behalf of the account.
type Submission struct {
	TxHash common.Hash `json:"tx_hash"`
	Nonce  uint64      `json:"nonce"`
}
