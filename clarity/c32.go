package clarity

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
)

const c32Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var c32Radix = big.NewInt(32)

// c32Encode encodes data in Crockford base32, one leading '0' per leading
// zero byte.
func c32Encode(data []byte) string {
	n := new(big.Int).SetBytes(data)
	var out []byte
	mod := new(big.Int)
	for n.Sign() > 0 {
		n.DivMod(n, c32Radix, mod)
		out = append(out, c32Alphabet[mod.Int64()])
	}
	for i := 0; i < len(data) && data[i] == 0; i++ {
		out = append(out, '0')
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func c32Normalize(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "O", "0")
	s = strings.ReplaceAll(s, "L", "1")
	return strings.ReplaceAll(s, "I", "1")
}

func c32Decode(s string) ([]byte, error) {
	s = c32Normalize(s)
	zeros := 0
	for zeros < len(s) && s[zeros] == '0' {
		zeros++
	}
	n := new(big.Int)
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte(c32Alphabet, s[i])
		if idx < 0 {
			return nil, fmt.Errorf("invalid c32 character %q", s[i])
		}
		n.Mul(n, c32Radix)
		n.Add(n, big.NewInt(int64(idx)))
	}
	body := n.Bytes()
	return append(make([]byte, zeros), body...), nil
}

func c32Checksum(version byte, data []byte) []byte {
	first := sha256.Sum256(append([]byte{version}, data...))
	second := sha256.Sum256(first[:])
	return second[:4]
}

// C32Address encodes a version byte and hash160 as a c32check address
// ("S" + version character + payload with checksum).
func C32Address(version byte, hash160 []byte) string {
	payload := append(append([]byte{}, hash160...), c32Checksum(version, hash160)...)
	return "S" + string(c32Alphabet[version&0x1f]) + c32Encode(payload)
}

// ParseC32Address decodes a c32check address into its version and hash160.
func ParseC32Address(addr string) (byte, [20]byte, error) {
	var hash [20]byte
	if len(addr) < 5 || (addr[0] != 'S' && addr[0] != 's') {
		return 0, hash, fmt.Errorf("invalid address %q", addr)
	}
	norm := c32Normalize(addr[1:])
	version := strings.IndexByte(c32Alphabet, norm[0])
	if version < 0 {
		return 0, hash, fmt.Errorf("invalid address version in %q", addr)
	}
	data, err := c32Decode(norm[1:])
	if err != nil {
		return 0, hash, fmt.Errorf("invalid address %q: %v", addr, err)
	}
	if len(data) != 24 {
		return 0, hash, fmt.Errorf("invalid address %q: payload is %d bytes", addr, len(data))
	}
	if !bytes.Equal(c32Checksum(byte(version), data[:20]), data[20:]) {
		return 0, hash, fmt.Errorf("invalid address %q: checksum mismatch", addr)
	}
	copy(hash[:], data[:20])
	return byte(version), hash, nil
}
