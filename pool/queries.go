package pool

import (
	"context"
	"fmt"
	"math/big"

	"github.com/alexandrut83/alerimpool/clarity"
)

// ElectionData is the state of the notifier election.
type ElectionData struct {
	VoteStatus      bool   `json:"vote_status"`
	BlocksRemaining uint64 `json:"election_blocks_remaining"`
}

func (d *Dispatcher) readUint(ctx context.Context, function string, args ...clarity.Value) (uint64, error) {
	value, err := d.ReadOnly(ctx, function, args...)
	if err != nil {
		return 0, err
	}
	return asUint(function, value)
}

func asUint(function string, value clarity.Value) (uint64, error) {
	n, ok := clarity.ToValue(value).(*big.Int)
	if !ok || n == nil {
		return 0, fmt.Errorf("%s: expected an integer, got %s", function, clarity.TypeString(value))
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("%s: %s out of range", function, n)
	}
	return n.Uint64(), nil
}

func (d *Dispatcher) readBool(ctx context.Context, function string, args ...clarity.Value) (bool, error) {
	value, err := d.ReadOnly(ctx, function, args...)
	if err != nil {
		return false, err
	}
	b, ok := clarity.ToValue(value).(bool)
	if !ok {
		return false, fmt.Errorf("%s: expected a bool, got %s", function, clarity.TypeString(value))
	}
	return b, nil
}

// principal returns the address held by the result, or "" for none.
func (d *Dispatcher) principal(ctx context.Context, function string) (string, error) {
	value, err := d.ReadOnly(ctx, function)
	if err != nil {
		return "", err
	}
	switch v := clarity.ToValue(value).(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	}
	return "", fmt.Errorf("%s: expected a principal, got %s", function, clarity.TypeString(value))
}

// RemainingBlocksUntilJoin is the number of blocks left before pending
// users can be accepted.
func (d *Dispatcher) RemainingBlocksUntilJoin(ctx context.Context) (uint64, error) {
	return d.readUint(ctx, "get-remaining-blocks-until-join")
}

// WaitingList returns the raw waiting list.
func (d *Dispatcher) WaitingList(ctx context.Context) (clarity.Value, error) {
	return d.ReadOnly(ctx, "get-waiting-list")
}

// ProposedRemovalList returns the raw list of miners proposed for removal.
func (d *Dispatcher) ProposedRemovalList(ctx context.Context) (clarity.Value, error) {
	return d.ReadOnly(ctx, "get-proposed-removal-list")
}

// PendingAcceptList returns the raw list of pending users.
func (d *Dispatcher) PendingAcceptList(ctx context.Context) (clarity.Value, error) {
	return d.ReadOnly(ctx, "get-pending-accept-list")
}

// MinersList returns the miners in the pool in JSON form.
func (d *Dispatcher) MinersList(ctx context.Context) (interface{}, error) {
	value, err := d.ReadOnly(ctx, "get-miners-list")
	if err != nil {
		return nil, err
	}
	return clarity.ToJSON(value), nil
}

// NotifierElection returns the notifier election state.
func (d *Dispatcher) NotifierElection(ctx context.Context) (*ElectionData, error) {
	const function = "get-data-notifier-election-process"
	value, err := d.ReadOnly(ctx, function)
	if err != nil {
		return nil, err
	}
	tuple, ok := clarity.Unwrap(value).(clarity.Tuple)
	if !ok {
		return nil, fmt.Errorf("%s: expected a tuple, got %s", function, clarity.TypeString(value))
	}
	data := &ElectionData{}
	if b, ok := clarity.ToValue(tuple["vote-status"]).(bool); ok {
		data.VoteStatus = b
	}
	if field, ok := tuple["election-blocks-remaining"]; ok {
		n, err := asUint(function, field)
		if err != nil {
			return nil, err
		}
		data.BlocksRemaining = n
	}
	return data, nil
}

// WasBlockClaimed reports whether the rewards of the block at height were
// claimed.
func (d *Dispatcher) WasBlockClaimed(ctx context.Context, height uint64) (bool, error) {
	return d.readBool(ctx, "was-block-claimed", clarity.NewUInt(height))
}

// Balance returns the pool balance of address.
func (d *Dispatcher) Balance(ctx context.Context, address string) (uint64, error) {
	arg, err := clarity.PrincipalArg(address)
	if err != nil {
		return 0, err
	}
	return d.readUint(ctx, "get-balance", arg)
}

// K returns the notifier vote threshold.
func (d *Dispatcher) K(ctx context.Context) (uint64, error) {
	return d.readUint(ctx, "get-k")
}

// Notifier returns the current notifier.
func (d *Dispatcher) Notifier(ctx context.Context) (string, error) {
	return d.principal(ctx, "get-notifier")
}

// NotifierVoteNumber returns the votes cast for notifier.
func (d *Dispatcher) NotifierVoteNumber(ctx context.Context, notifier string) (uint64, error) {
	arg, err := clarity.PrincipalArg(notifier)
	if err != nil {
		return 0, err
	}
	return d.readUint(ctx, "get-notifier-vote-number", arg)
}

// MaxVotedNotifier returns the notifier with the most votes.
func (d *Dispatcher) MaxVotedNotifier(ctx context.Context) (string, error) {
	return d.principal(ctx, "get-max-voted-notifier")
}

// MaxVotesNotifier returns the vote count of the most voted notifier.
func (d *Dispatcher) MaxVotesNotifier(ctx context.Context) (uint64, error) {
	return d.readUint(ctx, "get-max-votes-notifier")
}

// NotifierVoteStatus reports whether the notifier election has started.
func (d *Dispatcher) NotifierVoteStatus(ctx context.Context) (bool, error) {
	return d.readBool(ctx, "get-notifier-vote-status")
}
