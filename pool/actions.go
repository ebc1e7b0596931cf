package pool

import (
	"context"

	"github.com/pkg/errors"

	"github.com/alexandrut83/alerimpool/blockchain"
	"github.com/alexandrut83/alerimpool/clarity"
)

// ErrInfoDisabled is returned by the miner info action, which is switched
// off until get-all-data-miners-in-pool accepts single miners again.
var ErrInfoDisabled = errors.New("miner info is not available")

// ProposeRemoval submits propose-removal for address through the wallet
// session and returns the txid. The transaction is not tracked further.
func (d *Dispatcher) ProposeRemoval(ctx context.Context, address string) (string, error) {
	const function = "propose-removal"
	arg, err := clarity.PrincipalArg(address)
	if err != nil {
		return "", err
	}
	if !d.session.IsUserSignedIn() {
		return "", ErrNotSignedIn
	}
	contract := d.cfg.Contract()
	txid, err := d.session.SubmitContractCall(ctx, blockchain.ContractCall{
		ContractAddress: contract.ContractAddress,
		ContractName:    contract.ContractName,
		FunctionName:    function,
		Args:            []clarity.Value{arg},
	})
	if err != nil {
		submittedCalls.WithLabelValues(function, "error").Inc()
		return "", err
	}
	submittedCalls.WithLabelValues(function, "ok").Inc()
	logger.With("txid", txid).Infof("proposed removal of %s", address)
	return txid, nil
}

// MinerInfo is the disabled per-miner info action.
func (d *Dispatcher) MinerInfo(ctx context.Context, address string) (clarity.Value, error) {
	return nil, ErrInfoDisabled
}
