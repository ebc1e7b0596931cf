package pool

import (
	"context"

	"github.com/alexandrut83/alerimpool/clarity"
)

// Status is a user's membership stage in the pool.
type Status string

// Membership stages
const (
	StatusMiner    Status = "Miner"
	StatusWaiting  Status = "Waiting"
	StatusPending  Status = "Pending"
	StatusNotAsked Status = "Not Asked to Join"
)

const (
	statusTokenMiner   = "is-miner"
	statusTokenWaiting = "is-waiting"
	statusTokenPending = "is-pending"
)

// DecodeStatus maps a get-address-status token onto a Status. Unknown and
// empty tokens are StatusNotAsked.
func DecodeStatus(token string) Status {
	switch token {
	case statusTokenMiner:
		return StatusMiner
	case statusTokenWaiting:
		return StatusWaiting
	case statusTokenPending:
		return StatusPending
	}
	return StatusNotAsked
}

// AddressStatus returns the membership stage of address. Without a
// signed-in user no call is made and the result is StatusNotAsked.
func (d *Dispatcher) AddressStatus(ctx context.Context, address string) (Status, error) {
	if !d.session.IsUserSignedIn() {
		return StatusNotAsked, nil
	}
	arg, err := clarity.PrincipalArg(address)
	if err != nil {
		return StatusNotAsked, err
	}
	value, err := d.ReadOnly(ctx, "get-address-status", arg)
	if err != nil {
		return StatusNotAsked, err
	}
	token, _ := clarity.ToValue(value).(string)
	return DecodeStatus(token), nil
}
