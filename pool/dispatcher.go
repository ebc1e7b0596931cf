package pool

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/alexandrut83/alerimpool/blockchain"
	"github.com/alexandrut83/alerimpool/clarity"
	"github.com/alexandrut83/alerimpool/log"
	"github.com/alexandrut83/alerimpool/wallet"
)

var logger = log.NewLogger("pool")

// ErrNotSignedIn is returned on mainnet when no user is signed in.
var ErrNotSignedIn = wallet.ErrNotSignedIn

// Caller performs read-only contract calls.
type Caller interface {
	CallReadOnly(ctx context.Context, call blockchain.ReadOnlyCall) (clarity.Value, error)
}

// Dispatcher issues read-only calls against the pool contract on behalf of
// the current wallet session.
type Dispatcher struct {
	cfg     *blockchain.Config
	node    Caller
	session wallet.Session
	cache   *cache.Cache
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCache keeps read-only results for ttl. A non-positive ttl disables
// caching.
func WithCache(ttl time.Duration) Option {
	return func(d *Dispatcher) {
		if ttl > 0 {
			d.cache = cache.New(ttl, 2*ttl)
		}
	}
}

// NewDispatcher creates a dispatcher. A nil session behaves as anonymous.
func NewDispatcher(cfg *blockchain.Config, node Caller, session wallet.Session, opts ...Option) *Dispatcher {
	if session == nil {
		session = wallet.AnonymousSession{}
	}
	d := &Dispatcher{cfg: cfg, node: node, session: session}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the network configuration the dispatcher was built with.
func (d *Dispatcher) Config() *blockchain.Config { return d.cfg }

// Session returns the wallet session.
func (d *Dispatcher) Session() wallet.Session { return d.session }

// Sender resolves the sender address of read-only calls. On mainnet the
// signed-in user's mainnet address is required. Elsewhere the signed-in
// user's testnet address is used, falling back to the contract owner.
func (d *Dispatcher) Sender() (string, error) {
	if d.cfg.IsMainnet() {
		if !d.session.IsUserSignedIn() {
			return "", ErrNotSignedIn
		}
		data, err := d.session.LoadUserData()
		if err != nil {
			return "", err
		}
		return data.Addresses.Mainnet, nil
	}
	if d.session.IsUserSignedIn() {
		data, err := d.session.LoadUserData()
		if err != nil {
			return "", err
		}
		return data.Addresses.Testnet, nil
	}
	return d.cfg.Contract().Owner, nil
}

// ReadOnly calls a read-only contract function once and returns its raw
// result. Errors are returned to the caller without retry.
func (d *Dispatcher) ReadOnly(ctx context.Context, function string, args ...clarity.Value) (clarity.Value, error) {
	sender, err := d.Sender()
	if err != nil {
		return nil, err
	}

	var key string
	if d.cache != nil {
		key, err = cacheKey(sender, function, args)
		if err != nil {
			return nil, err
		}
		if v, ok := d.cache.Get(key); ok {
			readOnlyCalls.WithLabelValues(function, "cached").Inc()
			return v.(clarity.Value), nil
		}
	}

	contract := d.cfg.Contract()
	start := time.Now()
	value, err := d.node.CallReadOnly(ctx, blockchain.ReadOnlyCall{
		ContractAddress: contract.ContractAddress,
		ContractName:    contract.ContractName,
		FunctionName:    function,
		Sender:          sender,
		Args:            args,
	})
	readOnlyDuration.WithLabelValues(function).Observe(time.Since(start).Seconds())
	if err != nil {
		readOnlyCalls.WithLabelValues(function, "error").Inc()
		logger.With("fn", function).Debugf("read-only call failed: %v", err)
		return nil, errors.Wrapf(err, "call %s", function)
	}
	readOnlyCalls.WithLabelValues(function, "ok").Inc()
	if d.cache != nil {
		d.cache.SetDefault(key, value)
	}
	return value, nil
}

func cacheKey(sender, function string, args []clarity.Value) (string, error) {
	var sb strings.Builder
	sb.WriteString(sender)
	sb.WriteByte('/')
	sb.WriteString(function)
	for _, arg := range args {
		h, err := clarity.ToHex(arg)
		if err != nil {
			return "", err
		}
		sb.WriteByte('/')
		sb.WriteString(h)
	}
	return sb.String(), nil
}
