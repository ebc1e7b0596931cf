package clarity

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// TypeString returns the contract type signature of v.
func TypeString(v Value) string {
	switch t := v.(type) {
	case Int:
		return "int"
	case UInt:
		return "uint"
	case Bool:
		return "bool"
	case Buffer:
		return fmt.Sprintf("(buff %d)", len(t))
	case StandardPrincipal, ContractPrincipal:
		return "principal"
	case ResponseOk:
		return fmt.Sprintf("(response %s UnknownType)", TypeString(t.Value))
	case ResponseErr:
		return fmt.Sprintf("(response UnknownType %s)", TypeString(t.Value))
	case None:
		return "(optional none)"
	case Some:
		return fmt.Sprintf("(optional %s)", TypeString(t.Value))
	case List:
		if len(t) == 0 {
			return "(list 0 UnknownType)"
		}
		return fmt.Sprintf("(list %d %s)", len(t), TypeString(t[0]))
	case Tuple:
		fields := make([]string, 0, len(t))
		for _, key := range t.Keys() {
			fields = append(fields, fmt.Sprintf("(%s %s)", key, TypeString(t[key])))
		}
		return fmt.Sprintf("(tuple %s)", strings.Join(fields, " "))
	case StringASCII:
		return fmt.Sprintf("(string-ascii %d)", len(t))
	case StringUTF8:
		return fmt.Sprintf("(string-utf8 %d)", len(t))
	}
	return "UnknownType"
}

// ToJSON projects v into the platform's JSON shape: responses become
// {type, value, success}, everything else {type, value}.
func ToJSON(v Value) interface{} {
	switch t := v.(type) {
	case ResponseOk:
		return map[string]interface{}{"type": TypeString(v), "value": ToJSON(t.Value), "success": true}
	case ResponseErr:
		return map[string]interface{}{"type": TypeString(v), "value": ToJSON(t.Value), "success": false}
	}
	return map[string]interface{}{"type": TypeString(v), "value": jsonValue(v)}
}

func jsonValue(v Value) interface{} {
	switch t := v.(type) {
	case Int:
		return intString(t.Value)
	case UInt:
		return intString(t.Value)
	case Bool:
		return bool(t)
	case Buffer:
		return "0x" + hex.EncodeToString(t)
	case StandardPrincipal:
		return t.String()
	case ContractPrincipal:
		return t.String()
	case None:
		return nil
	case Some:
		return ToJSON(t.Value)
	case List:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = ToJSON(item)
		}
		return out
	case Tuple:
		out := make(map[string]interface{}, len(t))
		for key, item := range t {
			out[key] = ToJSON(item)
		}
		return out
	case StringASCII:
		return string(t)
	case StringUTF8:
		return string(t)
	}
	return nil
}

func intString(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// ToValue converts v into plain host values. Responses and optionals are
// unwrapped; none becomes nil. Integers are *big.Int, buffers []byte,
// principals and strings string, lists []interface{} and tuples
// map[string]interface{}.
func ToValue(v Value) interface{} {
	switch t := Unwrap(v).(type) {
	case nil:
		return nil
	case Int:
		return t.Value
	case UInt:
		return t.Value
	case Bool:
		return bool(t)
	case Buffer:
		return []byte(t)
	case StandardPrincipal:
		return t.String()
	case ContractPrincipal:
		return t.String()
	case List:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = ToValue(item)
		}
		return out
	case Tuple:
		out := make(map[string]interface{}, len(t))
		for key, item := range t {
			out[key] = ToValue(item)
		}
		return out
	case StringASCII:
		return string(t)
	case StringUTF8:
		return string(t)
	}
	return nil
}

// Display renders v as a single human-readable string for tables.
func Display(v Value) string {
	switch t := Unwrap(v).(type) {
	case nil:
		return ""
	case Int:
		return intString(t.Value)
	case UInt:
		return intString(t.Value)
	case Bool:
		if t {
			return "true"
		}
		return "false"
	case Buffer:
		return "0x" + hex.EncodeToString(t)
	case StandardPrincipal:
		return t.String()
	case ContractPrincipal:
		return t.String()
	case StringASCII:
		return string(t)
	case StringUTF8:
		return string(t)
	case List:
		items := make([]string, len(t))
		for i, item := range t {
			items[i] = Display(item)
		}
		return strings.Join(items, ", ")
	case Tuple:
		fields := make([]string, 0, len(t))
		for _, key := range t.Keys() {
			fields = append(fields, key+": "+Display(t[key]))
		}
		return "{" + strings.Join(fields, ", ") + "}"
	}
	return ""
}
