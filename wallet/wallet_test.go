package wallet

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandrut83/alerimpool/blockchain"
	"github.com/alexandrut83/alerimpool/clarity"
)

const testKeyHex = "edf9aee84d9b7abc145504dde6726c64f369d37ee34ded868fabd876c26570bc"

func testKeystore(t *testing.T) *Keystore {
	return &Keystore{Path: filepath.Join(t.TempDir(), "keys", "key.json"), ScryptN: 1 << 4}
}

func TestKeystoreImportUnlock(t *testing.T) {
	ks := testKeystore(t)
	imported, err := ks.Import(testKeyHex+"01", "secret")
	require.NoError(t, err)

	unlocked, err := ks.Unlock("secret")
	require.NoError(t, err)
	assert.Equal(t, imported.Serialize(), unlocked.Serialize())

	addr, err := ks.Address()
	require.NoError(t, err)
	assert.Equal(t, blockchain.AddressFromPublicKey(blockchain.AddressVersionTestnet, unlocked.PubKey()), addr)

	_, err = ks.Unlock("wrong")
	assert.Equal(t, ErrIncorrectPassphrase, err)
	_, err = ks.Unlock("")
	assert.Error(t, err)
}

func TestKeystoreCreate(t *testing.T) {
	ks := testKeystore(t)
	_, err := ks.Create("")
	assert.Error(t, err)

	created, err := ks.Create("pw")
	require.NoError(t, err)
	unlocked, err := ks.Unlock("pw")
	require.NoError(t, err)
	assert.True(t, created.PubKey().IsEqual(unlocked.PubKey()))
}

func TestKeystoreRejectsShortDerivedKey(t *testing.T) {
	ks := testKeystore(t)
	_, err := ks.Import(testKeyHex, "secret")
	require.NoError(t, err)

	content, err := os.ReadFile(ks.Path)
	require.NoError(t, err)
	var file map[string]interface{}
	require.NoError(t, json.Unmarshal(content, &file))
	file["crypto"].(map[string]interface{})["kdfparams"].(map[string]interface{})["dklen"] = 16
	content, err = json.Marshal(file)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(ks.Path, content, 0600))

	assert.NotPanics(t, func() {
		_, err = ks.Unlock("secret")
	})
	assert.EqualError(t, err, "unsupported kdf key length 16")
}

func TestKeystoreImportRejectsBadKey(t *testing.T) {
	ks := testKeystore(t)
	_, err := ks.Import("zz", "pw")
	assert.Error(t, err)
	_, err = ks.Import("abcd", "pw")
	assert.Error(t, err)
}

func TestAnonymousSession(t *testing.T) {
	var s Session = AnonymousSession{}
	assert.False(t, s.IsUserSignedIn())
	_, err := s.LoadUserData()
	assert.Equal(t, ErrNotSignedIn, err)
	_, err = s.SubmitContractCall(context.Background(), blockchain.ContractCall{})
	assert.Equal(t, ErrNotSignedIn, err)
}

type fakeNode struct {
	principal string
	nonce     uint64
	raw       []byte
}

func (n *fakeNode) GetAccount(_ context.Context, principal string) (*blockchain.AccountInfo, error) {
	n.principal = principal
	return &blockchain.AccountInfo{Nonce: n.nonce}, nil
}

func (n *fakeNode) BroadcastTransaction(_ context.Context, raw []byte) (string, error) {
	n.raw = raw
	return "0xfeed", nil
}

func testSession(t *testing.T, node Node) (*KeySession, *btcec.PrivateKey) {
	ks := testKeystore(t)
	key, err := ks.Import(testKeyHex, "pw")
	require.NoError(t, err)
	return NewKeySession(key, node, blockchain.DefaultParams[blockchain.Testnet], 0), key
}

func TestKeySessionUserData(t *testing.T) {
	s, _ := testSession(t, &fakeNode{})
	assert.True(t, s.IsUserSignedIn())
	data, err := s.LoadUserData()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(data.Addresses.Mainnet, "SP"))
	assert.True(t, strings.HasPrefix(data.Addresses.Testnet, "ST"))
}

func TestKeySessionSubmitContractCall(t *testing.T) {
	node := &fakeNode{nonce: 9}
	s, _ := testSession(t, node)
	data, err := s.LoadUserData()
	require.NoError(t, err)

	target, err := clarity.PrincipalArg(data.Addresses.Testnet)
	require.NoError(t, err)
	txid, err := s.SubmitContractCall(context.Background(), blockchain.ContractCall{
		ContractAddress: data.Addresses.Testnet,
		ContractName:    "mining-pool",
		FunctionName:    "propose-removal",
		Args:            []clarity.Value{target},
	})
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", txid)
	assert.Equal(t, data.Addresses.Testnet, node.principal)
	require.NotEmpty(t, node.raw)
	assert.Equal(t, byte(0x80), node.raw[0])
}
