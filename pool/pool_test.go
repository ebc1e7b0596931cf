package pool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandrut83/alerimpool/blockchain"
	"github.com/alexandrut83/alerimpool/clarity"
	"github.com/alexandrut83/alerimpool/wallet"
)

const (
	ownerAddr   = "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7"
	mainnetUser = "SP3FBR2AGK5H9QBDH3EEN6DF8EK8JY7RX8QJ5SVTE"
	testnetUser = "ST3FBR2AGK5H9QBDH3EEN6DF8EK8JY7RX8NQXMNRQ"
)

var miners = []string{
	"SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7",
	"SP3FBR2AGK5H9QBDH3EEN6DF8EK8JY7RX8QJ5SVTE",
	"SP1P72Z3704VMT3DMHPP2CB8TGQWGDBHD3RPR9GZS",
}

type fakeCaller struct {
	mu      sync.Mutex
	calls   []blockchain.ReadOnlyCall
	respond func(call blockchain.ReadOnlyCall) (clarity.Value, error)
}

func (c *fakeCaller) CallReadOnly(_ context.Context, call blockchain.ReadOnlyCall) (clarity.Value, error) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
	return c.respond(call)
}

func (c *fakeCaller) count(function string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.FunctionName == function {
			n++
		}
	}
	return n
}

type fakeSession struct {
	signedIn bool
	txid     string
	call     blockchain.ContractCall
}

func (s *fakeSession) IsUserSignedIn() bool { return s.signedIn }

func (s *fakeSession) LoadUserData() (*wallet.UserData, error) {
	if !s.signedIn {
		return nil, wallet.ErrNotSignedIn
	}
	return &wallet.UserData{Addresses: wallet.Addresses{Mainnet: mainnetUser, Testnet: testnetUser}}, nil
}

func (s *fakeSession) SubmitContractCall(_ context.Context, call blockchain.ContractCall) (string, error) {
	s.call = call
	return s.txid, nil
}

func testConfig(t *testing.T, network blockchain.Network) *blockchain.Config {
	cfg, err := blockchain.NewConfig(network, blockchain.NetworkParams{},
		blockchain.ContractMapping{ContractAddress: ownerAddr, ContractName: "mining-pool", Owner: ownerAddr}, 0)
	require.NoError(t, err)
	return cfg
}

func principalList(t *testing.T, addrs ...string) clarity.List {
	list, err := clarity.PrincipalList(addrs)
	require.NoError(t, err)
	return list
}

func TestSenderPolicy(t *testing.T) {
	tests := []struct {
		name     string
		network  blockchain.Network
		signedIn bool
		want     string
		err      error
	}{
		{"mainnet signed in", blockchain.Mainnet, true, mainnetUser, nil},
		{"mainnet anonymous", blockchain.Mainnet, false, "", ErrNotSignedIn},
		{"testnet signed in", blockchain.Testnet, true, testnetUser, nil},
		{"testnet anonymous", blockchain.Testnet, false, ownerAddr, nil},
		{"mocknet anonymous", blockchain.Mocknet, false, ownerAddr, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(testConfig(t, tt.network), nil, &fakeSession{signedIn: tt.signedIn})
			got, err := d.Sender()
			assert.Equal(t, tt.err, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSenderWithoutConfiguredOwner(t *testing.T) {
	cfg, err := blockchain.NewConfig(blockchain.Testnet, blockchain.NetworkParams{},
		blockchain.ContractMapping{ContractAddress: ownerAddr, ContractName: "mining-pool"}, 0)
	require.NoError(t, err)
	got, err := NewDispatcher(cfg, nil, nil).Sender()
	require.NoError(t, err)
	assert.Equal(t, ownerAddr, got)
}

func TestReadOnlyResolvesCall(t *testing.T) {
	caller := &fakeCaller{respond: func(blockchain.ReadOnlyCall) (clarity.Value, error) {
		return clarity.ResponseOk{Value: clarity.NewUInt(12)}, nil
	}}
	d := NewDispatcher(testConfig(t, blockchain.Testnet), caller, nil)
	v, err := d.ReadOnly(context.Background(), "get-k")
	require.NoError(t, err)
	assert.Equal(t, "12", clarity.Display(v))

	require.Len(t, caller.calls, 1)
	call := caller.calls[0]
	assert.Equal(t, ownerAddr, call.ContractAddress)
	assert.Equal(t, "mining-pool", call.ContractName)
	assert.Equal(t, "get-k", call.FunctionName)
	assert.Equal(t, ownerAddr, call.Sender)
}

func TestReadOnlyMainnetRequiresSignIn(t *testing.T) {
	caller := &fakeCaller{}
	d := NewDispatcher(testConfig(t, blockchain.Mainnet), caller, nil)
	_, err := d.ReadOnly(context.Background(), "get-k")
	assert.Equal(t, ErrNotSignedIn, err)
	assert.Empty(t, caller.calls)
}

func TestReadOnlyPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	caller := &fakeCaller{respond: func(blockchain.ReadOnlyCall) (clarity.Value, error) { return nil, boom }}
	d := NewDispatcher(testConfig(t, blockchain.Testnet), caller, nil)
	_, err := d.ReadOnly(context.Background(), "get-k")
	assert.ErrorIs(t, err, boom)
	assert.Len(t, caller.calls, 1)
}

func TestReadOnlyCache(t *testing.T) {
	caller := &fakeCaller{respond: func(blockchain.ReadOnlyCall) (clarity.Value, error) {
		return clarity.NewUInt(1), nil
	}}
	d := NewDispatcher(testConfig(t, blockchain.Testnet), caller, nil, WithCache(time.Minute))
	for i := 0; i < 3; i++ {
		_, err := d.ReadOnly(context.Background(), "was-block-claimed", clarity.NewUInt(7))
		require.NoError(t, err)
	}
	_, err := d.ReadOnly(context.Background(), "was-block-claimed", clarity.NewUInt(8))
	require.NoError(t, err)
	assert.Equal(t, 2, caller.count("was-block-claimed"))
}

func TestDecodeStatus(t *testing.T) {
	assert.Equal(t, StatusMiner, DecodeStatus("is-miner"))
	assert.Equal(t, StatusWaiting, DecodeStatus("is-waiting"))
	assert.Equal(t, StatusPending, DecodeStatus("is-pending"))
	assert.Equal(t, StatusNotAsked, DecodeStatus("is-blacklisted"))
	assert.Equal(t, StatusNotAsked, DecodeStatus(""))
	assert.Equal(t, StatusNotAsked, DecodeStatus("is-none"))
}

func TestAddressStatus(t *testing.T) {
	caller := &fakeCaller{respond: func(blockchain.ReadOnlyCall) (clarity.Value, error) {
		return clarity.ResponseOk{Value: clarity.StringASCII("is-waiting")}, nil
	}}
	signedIn := NewDispatcher(testConfig(t, blockchain.Testnet), caller, &fakeSession{signedIn: true})
	status, err := signedIn.AddressStatus(context.Background(), miners[0])
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, status)
	assert.Equal(t, 1, caller.count("get-address-status"))

	anonymous := NewDispatcher(testConfig(t, blockchain.Testnet), caller, nil)
	status, err = anonymous.AddressStatus(context.Background(), miners[0])
	require.NoError(t, err)
	assert.Equal(t, StatusNotAsked, status)
	assert.Equal(t, 1, caller.count("get-address-status"))
}

// dataCaller returns a tuple per principal and fails for the ones in fail.
func dataCaller(fail map[string]bool) *fakeCaller {
	return &fakeCaller{respond: func(call blockchain.ReadOnlyCall) (clarity.Value, error) {
		batch := call.Args[0].(clarity.List)
		out := clarity.List{}
		for _, p := range batch {
			addr := clarity.Display(p)
			if fail[addr] {
				return nil, errors.New("read_length")
			}
			out = append(out, clarity.Tuple{"address": p, "balance": clarity.NewUInt(uint64(len(out) + 1))})
		}
		return clarity.ResponseOk{Value: out}, nil
	}}
}

func TestFetchAllPerElementBestEffort(t *testing.T) {
	caller := dataCaller(map[string]bool{miners[1]: true})
	f := NewFetcher(NewDispatcher(testConfig(t, blockchain.Testnet), caller, nil), FetchOptions{BatchSize: 1})

	res, err := f.FetchAll(context.Background(), principalList(t, miners...), "get-all-data-waiting-miners")
	require.NoError(t, err)
	assert.Equal(t, len(miners), caller.count("get-all-data-waiting-miners"))

	require.Len(t, res.Items, 2)
	assert.Equal(t, miners[0], clarity.Display(res.Items[0].(clarity.Tuple)["address"]))
	assert.Equal(t, miners[2], clarity.Display(res.Items[1].(clarity.Tuple)["address"]))

	require.Len(t, res.Failures, 1)
	assert.Equal(t, []string{miners[1]}, res.Failures[0].Principals)
	assert.Error(t, res.Err())
}

func TestFetchAllFailFast(t *testing.T) {
	caller := dataCaller(map[string]bool{miners[1]: true})
	f := NewFetcher(NewDispatcher(testConfig(t, blockchain.Testnet), caller, nil),
		FetchOptions{BatchSize: 1, Policy: FailFast})

	_, err := f.FetchAll(context.Background(), principalList(t, miners...), "get-all-data-waiting-miners")
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, []string{miners[1]}, failure.Principals)
	assert.Equal(t, 2, caller.count("get-all-data-waiting-miners"))
}

func TestFetchAllBatched(t *testing.T) {
	caller := dataCaller(nil)
	f := NewFetcher(NewDispatcher(testConfig(t, blockchain.Testnet), caller, nil), FetchOptions{})
	assert.Equal(t, DefaultBatchSize, f.Options().BatchSize)

	res, err := f.FetchAll(context.Background(), principalList(t, miners...), "get-all-data-balance-miners")
	require.NoError(t, err)
	assert.Equal(t, 1, caller.count("get-all-data-balance-miners"))
	assert.Len(t, res.Items, 3)
	assert.Empty(t, res.Failures)
	assert.NoError(t, res.Err())
}

func TestFetchAllConcurrentKeepsOrder(t *testing.T) {
	list := make([]string, 0, 30)
	for i := 0; i < 10; i++ {
		list = append(list, miners...)
	}
	caller := dataCaller(nil)
	f := NewFetcher(NewDispatcher(testConfig(t, blockchain.Testnet), caller, nil),
		FetchOptions{BatchSize: 4, Concurrency: 4})

	res, err := f.FetchAll(context.Background(), principalList(t, list...), "get-all-data-miners-in-pool")
	require.NoError(t, err)
	assert.Equal(t, 8, caller.count("get-all-data-miners-in-pool"))
	require.Len(t, res.Items, len(list))
	for i, item := range res.Items {
		assert.Equal(t, list[i], clarity.Display(item.(clarity.Tuple)["address"]))
	}
}

func TestFetchAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	caller := &fakeCaller{respond: func(blockchain.ReadOnlyCall) (clarity.Value, error) {
		cancel()
		return nil, context.Canceled
	}}
	f := NewFetcher(NewDispatcher(testConfig(t, blockchain.Testnet), caller, nil), FetchOptions{BatchSize: 1})
	_, err := f.FetchAll(ctx, principalList(t, miners...), "get-all-data-waiting-miners")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, caller.count("get-all-data-waiting-miners"))
}

func TestFetchListQuery(t *testing.T) {
	list := principalList(t, miners...)
	caller := &fakeCaller{respond: func(call blockchain.ReadOnlyCall) (clarity.Value, error) {
		if call.FunctionName == WaitingMiners.ListFunction {
			return clarity.ResponseOk{Value: list}, nil
		}
		return clarity.ResponseOk{Value: call.Args[0]}, nil
	}}
	f := NewFetcher(NewDispatcher(testConfig(t, blockchain.Testnet), caller, nil), FetchOptions{BatchSize: 2})
	res, err := f.Fetch(context.Background(), WaitingMiners)
	require.NoError(t, err)
	assert.Equal(t, []clarity.Value(list), res.Items)
	assert.Equal(t, 2, caller.count(WaitingMiners.DataFunction))

	q, ok := LookupListQuery("removals")
	assert.True(t, ok)
	assert.Equal(t, "get-all-data-miners-proposed-for-removal", q.DataFunction)
}

func TestFetchAllRejectsNonList(t *testing.T) {
	f := NewFetcher(NewDispatcher(testConfig(t, blockchain.Testnet), &fakeCaller{}, nil), FetchOptions{})
	_, err := f.FetchAll(context.Background(), clarity.NewUInt(1), "x")
	assert.ErrorIs(t, err, clarity.ErrNotList)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("fail-fast")
	require.NoError(t, err)
	assert.Equal(t, FailFast, p)
	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, BestEffort, p)
	_, err = ParsePolicy("retry")
	assert.Error(t, err)
}

func TestTypedQueries(t *testing.T) {
	caller := &fakeCaller{respond: func(call blockchain.ReadOnlyCall) (clarity.Value, error) {
		switch call.FunctionName {
		case "get-remaining-blocks-until-join":
			return clarity.ResponseOk{Value: clarity.NewUInt(42)}, nil
		case "get-notifier":
			p, _ := clarity.PrincipalArg(miners[2])
			return clarity.Some{Value: p}, nil
		case "get-notifier-vote-status":
			return clarity.Bool(true), nil
		case "get-data-notifier-election-process":
			return clarity.ResponseOk{Value: clarity.Tuple{
				"vote-status":               clarity.Bool(true),
				"election-blocks-remaining": clarity.NewUInt(9),
			}}, nil
		case "get-k":
			return clarity.StringASCII("nope"), nil
		}
		return clarity.None{}, nil
	}}
	d := NewDispatcher(testConfig(t, blockchain.Testnet), caller, nil)
	ctx := context.Background()

	blocks, err := d.RemainingBlocksUntilJoin(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), blocks)

	notifier, err := d.Notifier(ctx)
	require.NoError(t, err)
	assert.Equal(t, miners[2], notifier)

	started, err := d.NotifierVoteStatus(ctx)
	require.NoError(t, err)
	assert.True(t, started)

	election, err := d.NotifierElection(ctx)
	require.NoError(t, err)
	assert.Equal(t, &ElectionData{VoteStatus: true, BlocksRemaining: 9}, election)

	top, err := d.MaxVotedNotifier(ctx)
	require.NoError(t, err)
	assert.Empty(t, top)

	_, err = d.K(ctx)
	assert.Error(t, err)
}

func TestProposeRemoval(t *testing.T) {
	session := &fakeSession{signedIn: true, txid: "0xbeef"}
	d := NewDispatcher(testConfig(t, blockchain.Testnet), &fakeCaller{}, session)
	txid, err := d.ProposeRemoval(context.Background(), miners[1])
	require.NoError(t, err)
	assert.Equal(t, "0xbeef", txid)
	assert.Equal(t, "propose-removal", session.call.FunctionName)
	assert.Equal(t, ownerAddr, session.call.ContractAddress)
	require.Len(t, session.call.Args, 1)
	assert.Equal(t, miners[1], clarity.Display(session.call.Args[0]))

	anonymous := NewDispatcher(testConfig(t, blockchain.Testnet), &fakeCaller{}, nil)
	_, err = anonymous.ProposeRemoval(context.Background(), miners[1])
	assert.Equal(t, ErrNotSignedIn, err)

	_, err = d.ProposeRemoval(context.Background(), "not-an-address")
	assert.Error(t, err)
}

func TestMinerInfoDisabled(t *testing.T) {
	d := NewDispatcher(testConfig(t, blockchain.Testnet), &fakeCaller{}, nil)
	_, err := d.MinerInfo(context.Background(), miners[0])
	assert.Equal(t, ErrInfoDisabled, err)
}
