package clarity

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"
	"unicode/utf8"
)

var (
	two128    = new(big.Int).Lsh(big.NewInt(1), 128)
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxUInt   = new(big.Int).Sub(two128, big.NewInt(1))
)

// maxDepth bounds nesting while decoding untrusted input.
const maxDepth = 32

// Serialize encodes v with the consensus encoding.
func Serialize(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := serialize(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToHex returns the 0x-prefixed hex consensus encoding of v.
func ToHex(v Value) (string, error) {
	b, err := Serialize(v)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}

func serialize(buf *bytes.Buffer, v Value) error {
	if v == nil {
		return fmt.Errorf("cannot serialize nil value")
	}
	buf.WriteByte(byte(v.Type()))
	switch t := v.(type) {
	case Int:
		return writeInt128(buf, t.Value, true)
	case UInt:
		return writeInt128(buf, t.Value, false)
	case Bool, None:
	case Buffer:
		writeLen(buf, len(t))
		buf.Write(t)
	case StandardPrincipal:
		writePrincipal(buf, t)
	case ContractPrincipal:
		writePrincipal(buf, t.StandardPrincipal)
		return writeName(buf, t.Name)
	case ResponseOk:
		return serialize(buf, t.Value)
	case ResponseErr:
		return serialize(buf, t.Value)
	case Some:
		return serialize(buf, t.Value)
	case List:
		writeLen(buf, len(t))
		for _, item := range t {
			if err := serialize(buf, item); err != nil {
				return err
			}
		}
	case Tuple:
		writeLen(buf, len(t))
		for _, key := range t.Keys() {
			if err := writeName(buf, key); err != nil {
				return err
			}
			if err := serialize(buf, t[key]); err != nil {
				return err
			}
		}
	case StringASCII:
		for i := 0; i < len(t); i++ {
			if t[i] > 0x7f {
				return fmt.Errorf("string-ascii contains non-ascii byte 0x%02x", t[i])
			}
		}
		writeLen(buf, len(t))
		buf.WriteString(string(t))
	case StringUTF8:
		if !utf8.ValidString(string(t)) {
			return fmt.Errorf("string-utf8 is not valid utf-8")
		}
		writeLen(buf, len(t))
		buf.WriteString(string(t))
	default:
		return fmt.Errorf("cannot serialize %T", v)
	}
	return nil
}

func writeLen(buf *bytes.Buffer, n int) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	buf.Write(b[:])
}

func writeName(buf *bytes.Buffer, name string) error {
	if len(name) == 0 || len(name) > 128 {
		return fmt.Errorf("invalid name length %d", len(name))
	}
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)
	return nil
}

func writePrincipal(buf *bytes.Buffer, p StandardPrincipal) {
	buf.WriteByte(p.Version)
	buf.Write(p.Hash160[:])
}

func writeInt128(buf *bytes.Buffer, n *big.Int, signed bool) error {
	if n == nil {
		n = new(big.Int)
	}
	if signed {
		if n.Cmp(minInt128) < 0 || n.Cmp(maxInt128) > 0 {
			return fmt.Errorf("int %s out of 128-bit range", n)
		}
	} else if n.Sign() < 0 || n.Cmp(maxUInt) > 0 {
		return fmt.Errorf("uint %s out of 128-bit range", n)
	}
	u := n
	if n.Sign() < 0 {
		u = new(big.Int).Add(two128, n)
	}
	var b [16]byte
	u.FillBytes(b[:])
	buf.Write(b[:])
	return nil
}

// Deserialize decodes a consensus-encoded value. Trailing bytes are an error.
func Deserialize(data []byte) (Value, error) {
	r := bytes.NewReader(data)
	v, err := deserialize(r, 0)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after value", r.Len())
	}
	return v, nil
}

// FromHex decodes a hex consensus encoding, with or without 0x prefix.
func FromHex(s string) (Value, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex value: %v", err)
	}
	return Deserialize(data)
}

func deserialize(r *bytes.Reader, depth int) (Value, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("value nesting exceeds %d", maxDepth)
	}
	prefix, err := r.ReadByte()
	if err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	switch Type(prefix) {
	case TypeInt:
		n, err := readInt128(r, true)
		return Int{Value: n}, err
	case TypeUInt:
		n, err := readInt128(r, false)
		return UInt{Value: n}, err
	case TypeBuffer:
		b, err := readSized(r)
		return Buffer(b), err
	case TypeBoolTrue:
		return Bool(true), nil
	case TypeBoolFalse:
		return Bool(false), nil
	case TypePrincipalStandard:
		return readPrincipal(r)
	case TypePrincipalContract:
		p, err := readPrincipal(r)
		if err != nil {
			return nil, err
		}
		name, err := readName(r)
		if err != nil {
			return nil, err
		}
		return ContractPrincipal{StandardPrincipal: p, Name: name}, nil
	case TypeResponseOk:
		inner, err := deserialize(r, depth+1)
		return ResponseOk{Value: inner}, err
	case TypeResponseErr:
		inner, err := deserialize(r, depth+1)
		return ResponseErr{Value: inner}, err
	case TypeOptionalNone:
		return None{}, nil
	case TypeOptionalSome:
		inner, err := deserialize(r, depth+1)
		return Some{Value: inner}, err
	case TypeList:
		n, err := readLen(r)
		if err != nil {
			return nil, err
		}
		list := make(List, 0, minInt(n, r.Len()))
		for i := 0; i < n; i++ {
			item, err := deserialize(r, depth+1)
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		return list, nil
	case TypeTuple:
		n, err := readLen(r)
		if err != nil {
			return nil, err
		}
		tuple := make(Tuple, minInt(n, r.Len()))
		for i := 0; i < n; i++ {
			key, err := readName(r)
			if err != nil {
				return nil, err
			}
			item, err := deserialize(r, depth+1)
			if err != nil {
				return nil, err
			}
			tuple[key] = item
		}
		return tuple, nil
	case TypeStringASCII:
		b, err := readSized(r)
		return StringASCII(b), err
	case TypeStringUTF8:
		b, err := readSized(r)
		if err == nil && !utf8.Valid(b) {
			err = fmt.Errorf("string-utf8 is not valid utf-8")
		}
		return StringUTF8(b), err
	}
	return nil, fmt.Errorf("unknown value type prefix 0x%02x", prefix)
}

func readLen(r *bytes.Reader) (int, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	return int(binary.BigEndian.Uint32(b[:])), nil
}

func readSized(r *bytes.Reader) ([]byte, error) {
	n, err := readLen(r)
	if err != nil {
		return nil, err
	}
	if n > r.Len() {
		return nil, io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	_, err = io.ReadFull(r, b)
	return b, err
}

func readName(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", io.ErrUnexpectedEOF
	}
	return string(b), nil
}

func readPrincipal(r *bytes.Reader) (StandardPrincipal, error) {
	var p StandardPrincipal
	version, err := r.ReadByte()
	if err != nil {
		return p, io.ErrUnexpectedEOF
	}
	p.Version = version
	if _, err := io.ReadFull(r, p.Hash160[:]); err != nil {
		return p, io.ErrUnexpectedEOF
	}
	return p, nil
}

func readInt128(r *bytes.Reader, signed bool) (*big.Int, error) {
	var b [16]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	n := new(big.Int).SetBytes(b[:])
	if signed && b[0]&0x80 != 0 {
		n.Sub(n, two128)
	}
	return n, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
