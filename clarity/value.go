package clarity

import (
	"fmt"
	"math/big"
	"sort"
)

// Type tags the variant held by a Value. The numeric values are the
// consensus serialization prefixes.
type Type byte

// Value types
const (
	TypeInt               Type = 0x00
	TypeUInt              Type = 0x01
	TypeBuffer            Type = 0x02
	TypeBoolTrue          Type = 0x03
	TypeBoolFalse         Type = 0x04
	TypePrincipalStandard Type = 0x05
	TypePrincipalContract Type = 0x06
	TypeResponseOk        Type = 0x07
	TypeResponseErr       Type = 0x08
	TypeOptionalNone      Type = 0x09
	TypeOptionalSome      Type = 0x0a
	TypeList              Type = 0x0b
	TypeTuple             Type = 0x0c
	TypeStringASCII       Type = 0x0d
	TypeStringUTF8        Type = 0x0e
)

// Value is a contract value as the smart contract platform encodes it.
type Value interface {
	Type() Type
}

// Int is a signed 128-bit integer.
type Int struct {
	Value *big.Int
}

// UInt is an unsigned 128-bit integer.
type UInt struct {
	Value *big.Int
}

// Bool is true or false.
type Bool bool

// Buffer is a byte buffer.
type Buffer []byte

// StandardPrincipal is an account principal.
type StandardPrincipal struct {
	Version byte
	Hash160 [20]byte
}

// ContractPrincipal is a principal naming a deployed contract.
type ContractPrincipal struct {
	StandardPrincipal
	Name string
}

// ResponseOk wraps a successful response value.
type ResponseOk struct {
	Value Value
}

// ResponseErr wraps an error response value.
type ResponseErr struct {
	Value Value
}

// None is the empty optional.
type None struct{}

// Some is a present optional.
type Some struct {
	Value Value
}

// List is an ordered list of values.
type List []Value

// Tuple maps field names to values.
type Tuple map[string]Value

// StringASCII is an ascii string.
type StringASCII string

// StringUTF8 is a utf-8 string.
type StringUTF8 string

func (Int) Type() Type               { return TypeInt }
func (UInt) Type() Type              { return TypeUInt }
func (Buffer) Type() Type            { return TypeBuffer }
func (StandardPrincipal) Type() Type { return TypePrincipalStandard }
func (ContractPrincipal) Type() Type { return TypePrincipalContract }
func (ResponseOk) Type() Type        { return TypeResponseOk }
func (ResponseErr) Type() Type       { return TypeResponseErr }
func (None) Type() Type              { return TypeOptionalNone }
func (Some) Type() Type              { return TypeOptionalSome }
func (List) Type() Type              { return TypeList }
func (Tuple) Type() Type             { return TypeTuple }
func (StringASCII) Type() Type       { return TypeStringASCII }
func (StringUTF8) Type() Type        { return TypeStringUTF8 }

// Type reports TypeBoolTrue or TypeBoolFalse.
func (b Bool) Type() Type {
	if b {
		return TypeBoolTrue
	}
	return TypeBoolFalse
}

// NewInt returns an Int holding v.
func NewInt(v int64) Int { return Int{Value: big.NewInt(v)} }

// NewUInt returns a UInt holding v.
func NewUInt(v uint64) UInt { return UInt{Value: new(big.Int).SetUint64(v)} }

// String returns the c32check address of the principal.
func (p StandardPrincipal) String() string {
	return C32Address(p.Version, p.Hash160[:])
}

// String returns the qualified contract identifier.
func (p ContractPrincipal) String() string {
	return p.StandardPrincipal.String() + "." + p.Name
}

// Keys returns the tuple field names in lexicographic order.
func (t Tuple) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeUInt:
		return "uint"
	case TypeBuffer:
		return "buffer"
	case TypeBoolTrue, TypeBoolFalse:
		return "bool"
	case TypePrincipalStandard, TypePrincipalContract:
		return "principal"
	case TypeResponseOk:
		return "response-ok"
	case TypeResponseErr:
		return "response-err"
	case TypeOptionalNone:
		return "none"
	case TypeOptionalSome:
		return "some"
	case TypeList:
		return "list"
	case TypeTuple:
		return "tuple"
	case TypeStringASCII:
		return "string-ascii"
	case TypeStringUTF8:
		return "string-utf8"
	}
	return fmt.Sprintf("unknown(0x%02x)", byte(t))
}

// Unwrap strips response and optional wrappers. A none yields nil.
func Unwrap(v Value) Value {
	for {
		switch w := v.(type) {
		case ResponseOk:
			v = w.Value
		case ResponseErr:
			v = w.Value
		case Some:
			v = w.Value
		case None:
			return nil
		default:
			return v
		}
	}
}
