package wallet

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"

	"github.com/alexandrut83/alerimpool/blockchain"
	"github.com/alexandrut83/alerimpool/log"
)

var logger = log.NewLogger("wallet")

// ErrNotSignedIn is returned when an operation needs a signed-in user.
var ErrNotSignedIn = errors.New("user is not signed in")

// DefaultFee is the contract-call fee in micro-STX when none is configured.
const DefaultFee uint64 = 2000

// Addresses holds a user's address per network.
type Addresses struct {
	Mainnet string `json:"mainnet"`
	Testnet string `json:"testnet"`
}

// UserData is what a signed-in session exposes about its user.
type UserData struct {
	Addresses Addresses `json:"addresses"`
}

// Session answers who is signed in and submits transactions on their behalf.
type Session interface {
	IsUserSignedIn() bool
	LoadUserData() (*UserData, error)
	SubmitContractCall(ctx context.Context, call blockchain.ContractCall) (string, error)
}

// Node is the part of the node client a session needs to submit calls.
type Node interface {
	GetAccount(ctx context.Context, principal string) (*blockchain.AccountInfo, error)
	BroadcastTransaction(ctx context.Context, raw []byte) (string, error)
}

// AnonymousSession never has a signed-in user.
type AnonymousSession struct{}

var _ Session = AnonymousSession{}

func (AnonymousSession) IsUserSignedIn() bool { return false }

func (AnonymousSession) LoadUserData() (*UserData, error) { return nil, ErrNotSignedIn }

func (AnonymousSession) SubmitContractCall(context.Context, blockchain.ContractCall) (string, error) {
	return "", ErrNotSignedIn
}

// KeySession is signed in with an unlocked secp256k1 key.
type KeySession struct {
	key    *btcec.PrivateKey
	node   Node
	params blockchain.NetworkParams
	fee    uint64
}

var _ Session = (*KeySession)(nil)

// NewKeySession creates a session for key submitting through node.
// A zero fee uses DefaultFee.
func NewKeySession(key *btcec.PrivateKey, node Node, params blockchain.NetworkParams, fee uint64) *KeySession {
	if fee == 0 {
		fee = DefaultFee
	}
	return &KeySession{key: key, node: node, params: params, fee: fee}
}

func (s *KeySession) IsUserSignedIn() bool { return s.key != nil }

func (s *KeySession) LoadUserData() (*UserData, error) {
	if s.key == nil {
		return nil, ErrNotSignedIn
	}
	pub := s.key.PubKey()
	return &UserData{Addresses: Addresses{
		Mainnet: blockchain.AddressFromPublicKey(blockchain.AddressVersionMainnet, pub),
		Testnet: blockchain.AddressFromPublicKey(blockchain.AddressVersionTestnet, pub),
	}}, nil
}

// sender is the address the node knows this key by on the session's network.
func (s *KeySession) sender() string {
	return blockchain.AddressFromPublicKey(s.params.AddressVersion, s.key.PubKey())
}

// SubmitContractCall signs call with the session key at the account's
// current nonce and broadcasts it. It returns the txid reported by the node.
func (s *KeySession) SubmitContractCall(ctx context.Context, call blockchain.ContractCall) (string, error) {
	if s.key == nil {
		return "", ErrNotSignedIn
	}
	sender := s.sender()
	account, err := s.node.GetAccount(ctx, sender)
	if err != nil {
		return "", errors.Wrapf(err, "fetch nonce for %s", sender)
	}
	tx := blockchain.NewTransaction(s.params, s.key.PubKey(), call, account.Nonce, s.fee)
	if err := tx.Sign(s.key); err != nil {
		return "", err
	}
	raw, err := tx.Serialize()
	if err != nil {
		return "", err
	}
	txid, err := s.node.BroadcastTransaction(ctx, raw)
	if err != nil {
		return "", errors.Wrapf(err, "broadcast %s", call.FunctionName)
	}
	logger.With("txid", txid).Infof("submitted %s.%s::%s nonce=%d fee=%d",
		call.ContractAddress, call.ContractName, call.FunctionName, account.Nonce, s.fee)
	return txid, nil
}
