package tracker

import (
	"context"
	"errors"

	"github.com/lightlink-network/ll-bridge-tracker/bridge"
	"github.com/lightlink-network/ll-bridge-tracker/types"
)

var ErrNotFinalizable = errors.New("transfer is not ready for relay")

// IsFinalizable reports whether t may be finalized now.
func IsFinalizable(t types.Transfer) bool {
	return t.Status == types.ReadyForRelay
}

// Finalize submits the finalization of t through gw. The transfer's status
// is left alone; the next refresh observes the result.
func Finalize(ctx context.Context, gw bridge.Gateway, t types.Transfer) (*types.Submission, error) {
	if !IsFinalizable(t) {
		return nil, ErrNotFinalizable
	}
	return gw.FinalizeMessage(ctx, t.Message)
}
