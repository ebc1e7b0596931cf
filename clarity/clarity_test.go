package clarity

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAddr    = "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7"
	testHash160 = "a46ff88886c2ef9762d970b4d2c63678835bd39d"
)

func TestC32Address(t *testing.T) {
	hash, err := hex.DecodeString(testHash160)
	require.NoError(t, err)
	assert.Equal(t, testAddr, C32Address(22, hash))

	version, decoded, err := ParseC32Address(testAddr)
	require.NoError(t, err)
	assert.Equal(t, byte(22), version)
	assert.Equal(t, testHash160, hex.EncodeToString(decoded[:]))
}

func TestC32AddressLeadingZeros(t *testing.T) {
	hash := make([]byte, 20)
	hash[19] = 1
	addr := C32Address(26, hash)
	version, decoded, err := ParseC32Address(addr)
	require.NoError(t, err)
	assert.Equal(t, byte(26), version)
	assert.Equal(t, hash, decoded[:])
}

func TestParseC32AddressBadChecksum(t *testing.T) {
	bad := testAddr[:len(testAddr)-1] + "8"
	_, _, err := ParseC32Address(bad)
	assert.Error(t, err)

	_, _, err = ParseC32Address("not-an-address")
	assert.Error(t, err)
}

func TestSerializeScalars(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		hex   string
	}{
		{"uint", NewUInt(1), "0x0100000000000000000000000000000001"},
		{"int", NewInt(-1), "0x00ffffffffffffffffffffffffffffffff"},
		{"true", Bool(true), "0x03"},
		{"false", Bool(false), "0x04"},
		{"none", None{}, "0x09"},
		{"buffer", Buffer{0xbe, 0xef}, "0x0200000002beef"},
		{"ascii", StringASCII("hi"), "0x0d000000026869"},
		{"ok uint", ResponseOk{Value: NewUInt(2)}, "0x070100000000000000000000000000000002"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToHex(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.hex, got)

			back, err := FromHex(tc.hex)
			require.NoError(t, err)
			assert.Equal(t, tc.value, back)
		})
	}
}

func TestSerializeTupleSortsKeys(t *testing.T) {
	a, err := Serialize(Tuple{"b": Bool(true), "a": Bool(false)})
	require.NoError(t, err)
	// prefix, count, "a" false, "b" true
	assert.Equal(t, "0c00000002016104016203", hex.EncodeToString(a))
}

func TestSerializeOutOfRange(t *testing.T) {
	_, err := Serialize(UInt{Value: big.NewInt(-1)})
	assert.Error(t, err)
	_, err = Serialize(StringASCII("caf\xc3\xa9"))
	assert.Error(t, err)
	_, err = Serialize(nil)
	assert.Error(t, err)
}

func TestDeserializeNested(t *testing.T) {
	p, err := PrincipalArg(testAddr)
	require.NoError(t, err)
	value := ResponseOk{Value: List{
		Tuple{"miner": p, "pos-votes": NewUInt(3), "was-blacklist": Bool(false)},
		Tuple{"miner": p, "pos-votes": NewUInt(5), "was-blacklist": Bool(true)},
	}}
	encoded, err := ToHex(value)
	require.NoError(t, err)
	decoded, err := FromHex(encoded)
	require.NoError(t, err)
	assert.Equal(t, value, decoded)
}

func TestDeserializeErrors(t *testing.T) {
	_, err := FromHex("0x01")
	assert.Error(t, err)
	_, err = FromHex("0x0304")
	assert.Error(t, err)
	_, err = FromHex("0xff")
	assert.Error(t, err)
	_, err = FromHex("zz")
	assert.Error(t, err)
}

func TestContractPrincipal(t *testing.T) {
	v, err := PrincipalArg(testAddr + ".mining-pool")
	require.NoError(t, err)
	cp, ok := v.(ContractPrincipal)
	require.True(t, ok)
	assert.Equal(t, "mining-pool", cp.Name)
	assert.Equal(t, testAddr+".mining-pool", cp.String())

	back, err := FromHex(mustHex(t, v))
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestTypeString(t *testing.T) {
	p, err := PrincipalArg(testAddr)
	require.NoError(t, err)
	assert.Equal(t, "uint", TypeString(NewUInt(1)))
	assert.Equal(t, "(buff 3)", TypeString(Buffer{1, 2, 3}))
	assert.Equal(t, "(list 2 principal)", TypeString(List{p, p}))
	assert.Equal(t, "(list 0 UnknownType)", TypeString(List{}))
	assert.Equal(t, "(optional none)", TypeString(None{}))
	assert.Equal(t, "(optional bool)", TypeString(Some{Value: Bool(true)}))
	assert.Equal(t, "(response uint UnknownType)", TypeString(ResponseOk{Value: NewUInt(1)}))
	assert.Equal(t, "(response UnknownType int)", TypeString(ResponseErr{Value: NewInt(1)}))
	assert.Equal(t, "(tuple (a uint) (b bool))", TypeString(Tuple{"b": Bool(true), "a": NewUInt(1)}))
	assert.Equal(t, "(string-ascii 5)", TypeString(StringASCII("hello")))
}

func TestToJSON(t *testing.T) {
	got := ToJSON(ResponseOk{Value: List{NewUInt(7), None{}}})
	want := map[string]interface{}{
		"type":    "(response (list 2 uint) UnknownType)",
		"success": true,
		"value": map[string]interface{}{
			"type": "(list 2 uint)",
			"value": []interface{}{
				map[string]interface{}{"type": "uint", "value": "7"},
				map[string]interface{}{"type": "(optional none)", "value": nil},
			},
		},
	}
	assert.Equal(t, want, got)

	errJSON := ToJSON(ResponseErr{Value: NewUInt(1)}).(map[string]interface{})
	assert.Equal(t, false, errJSON["success"])
}

func TestToValue(t *testing.T) {
	assert.Equal(t, big.NewInt(12), ToValue(ResponseOk{Value: NewUInt(12)}))
	assert.Nil(t, ToValue(None{}))
	assert.Equal(t, "is-miner", ToValue(ResponseOk{Value: StringASCII("is-miner")}))
	assert.Equal(t, map[string]interface{}{"ok": true}, ToValue(Tuple{"ok": Some{Value: Bool(true)}}))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "12", Display(ResponseOk{Value: NewUInt(12)}))
	assert.Equal(t, "", Display(None{}))
	assert.Equal(t, "{a: 1, b: true}", Display(Tuple{"b": Bool(true), "a": NewInt(1)}))
}

func TestListSlice(t *testing.T) {
	list := List{NewUInt(1), NewUInt(2), NewUInt(3)}
	got, err := ListSlice(list, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, List{NewUInt(2)}, got)

	got, err = ListSlice(ResponseOk{Value: list}, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, List{NewUInt(3)}, got)

	_, err = ListSlice(NewUInt(1), 0, 1)
	assert.ErrorIs(t, err, ErrNotList)
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{"u12", NewUInt(12)},
		{"-3", NewInt(-3)},
		{"true", Bool(true)},
		{"none", None{}},
		{"0xbeef", Buffer{0xbe, 0xef}},
		{`"text"`, StringASCII("text")},
		{`u"text"`, StringUTF8("text")},
	}
	for _, tc := range tests {
		got, err := ParseArg(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	p, err := ParseArg("'" + testAddr)
	require.NoError(t, err)
	assert.Equal(t, TypePrincipalStandard, p.Type())

	for _, bad := range []string{"", "u-1", "abc", "0xzz"} {
		_, err := ParseArg(bad)
		assert.Error(t, err, bad)
	}
}

func mustHex(t *testing.T, v Value) string {
	s, err := ToHex(v)
	require.NoError(t, err)
	return s
}
