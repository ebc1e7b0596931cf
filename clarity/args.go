package clarity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrNotList is returned when a list operation receives another kind of value.
var ErrNotList = errors.New("value is not a list")

// PrincipalArg encodes an address, either "SP…" or "SP….contract-name",
// as a principal argument.
func PrincipalArg(address string) (Value, error) {
	address = strings.TrimPrefix(strings.TrimSpace(address), "'")
	if i := strings.IndexByte(address, '.'); i >= 0 {
		p, err := parseStandard(address[:i])
		if err != nil {
			return nil, err
		}
		name := address[i+1:]
		if name == "" || len(name) > 128 {
			return nil, fmt.Errorf("invalid contract name in %q", address)
		}
		return ContractPrincipal{StandardPrincipal: p, Name: name}, nil
	}
	return parseStandard(address)
}

func parseStandard(address string) (StandardPrincipal, error) {
	version, hash, err := ParseC32Address(address)
	if err != nil {
		return StandardPrincipal{}, err
	}
	return StandardPrincipal{Version: version, Hash160: hash}, nil
}

// PrincipalList encodes addresses as a list of principals.
func PrincipalList(addresses []string) (List, error) {
	list := make(List, 0, len(addresses))
	for _, addr := range addresses {
		p, err := PrincipalArg(addr)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, nil
}

// AsList returns the list held by v, looking through an ok response.
func AsList(v Value) (List, error) {
	if ok, isOk := v.(ResponseOk); isOk {
		v = ok.Value
	}
	list, isList := v.(List)
	if !isList {
		if v == nil {
			return nil, ErrNotList
		}
		return nil, fmt.Errorf("%w: got %s", ErrNotList, v.Type())
	}
	return list, nil
}

// ListSlice returns a new list holding elements [start, end) of the list
// held by v. end is clamped to the list length.
func ListSlice(v Value, start, end int) (List, error) {
	list, err := AsList(v)
	if err != nil {
		return nil, err
	}
	if end > len(list) {
		end = len(list)
	}
	if start < 0 || start > end {
		return nil, fmt.Errorf("invalid list slice [%d:%d] of %d", start, end, len(list))
	}
	out := make(List, end-start)
	copy(out, list[start:end])
	return out, nil
}

// ParseArg parses the command line argument syntax:
//
//	u12        uint
//	12, -3     int
//	true       bool
//	none       optional none
//	0xbeef     buffer
//	'SP… SP…   principal (optionally .contract-name)
//	"text"     string-ascii
//	u"text"    string-utf8
func ParseArg(s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, fmt.Errorf("empty argument")
	case s == "true":
		return Bool(true), nil
	case s == "false":
		return Bool(false), nil
	case s == "none":
		return None{}, nil
	case strings.HasPrefix(s, `u"`) && strings.HasSuffix(s, `"`) && len(s) >= 3:
		return StringUTF8(s[2 : len(s)-1]), nil
	case strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2:
		return StringASCII(s[1 : len(s)-1]), nil
	case strings.HasPrefix(s, "0x"):
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid buffer %q: %v", s, err)
		}
		return Buffer(b), nil
	case strings.HasPrefix(s, "'") || strings.HasPrefix(s, "S"):
		return PrincipalArg(s)
	case strings.HasPrefix(s, "u"):
		n, ok := new(big.Int).SetString(s[1:], 10)
		if !ok || n.Sign() < 0 {
			return nil, fmt.Errorf("invalid uint %q", s)
		}
		return UInt{Value: n}, nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("cannot parse argument %q", s)
	}
	return Int{Value: n}, nil
}
