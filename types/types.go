package types

// MessageStatus represents the different states a cross-chain message can be in
type MessageStatus string

const (
	// UnconfirmedL1ToL2Message - Message is an L1 to L2 message and has not been processed by the L2
	UnconfirmedL1ToL2Message MessageStatus = "UNCONFIRMED_L1_TO_L2_MESSAGE"

	// FailedL1ToL2Message - Message is an L1 to L2 message and the transaction to execute the message failed
	FailedL1ToL2Message MessageStatus = "FAILED_L1_TO_L2_MESSAGE"

	// StateRootNotPublished - Message is an L2 to L1 message and no state root has been published yet
	StateRootNotPublished MessageStatus = "STATE_ROOT_NOT_PUBLISHED"

	// ReadyToProve - Message is ready to be proved on L1 to initiate the challenge period
	ReadyToProve MessageStatus = "READY_TO_PROVE"

	// InChallengePeriod - Message is a proved L2 to L1 message and is undergoing the challenge period
	InChallengePeriod MessageStatus = "IN_CHALLENGE_PERIOD"

	// ReadyForRelay - Message is ready to be relayed
	ReadyForRelay MessageStatus = "READY_FOR_RELAY"

	// Relayed - Message has been relayed
	Relayed MessageStatus = "RELAYED"
)

var statusRank = map[MessageStatus]int{
	UnconfirmedL1ToL2Message: 0,
	FailedL1ToL2Message:      1,
	StateRootNotPublished:    2,
	ReadyToProve:             3,
	InChallengePeriod:        4,
	ReadyForRelay:            5,
	Relayed:                  6,
}

// Rank returns the position of the status in the message lifecycle, or -1
// for a status this build does not know about.
func (s MessageStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

func (s MessageStatus) Known() bool {
	return s.Rank() >= 0
}

func (s MessageStatus) String() string {
	return string(s)
}

// Direction of a cross-domain message.
type Direction int

const (
	L1ToL2 Direction = iota
	L2ToL1
)

func (d Direction) String() string {
	switch d {
	case L1ToL2:
		return "l1_to_l2"
	case L2ToL1:
		return "l2_to_l1"
	default:
		return "unknown"
	}
}

// TxType is the indexer document type that carries messages in this direction.
func (d Direction) TxType() string {
	if d == L1ToL2 {
		return "deposit"
	}
	return "withdrawal"
}
