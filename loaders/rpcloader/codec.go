package rpcloader

import (
	"encoding/json"

	"github.com/metacall/metacall-go/value"
)

func encodeInspectDoc(doc map[string]any) ([]byte, error) {
	return json.Marshal(doc)
}

func decodeInspectDoc(raw []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// nativeFromValue converts a scalar/array/map Value into the plain Go
// types structpb.NewStruct accepts (bool, float64, string, nil, []any,
// map[string]any). Entity-carrying values (function, class, object,
// future, exception, throwable) are rendered through Stringify, since
// they cannot cross a remote RPC boundary as live handles.
func nativeFromValue(v *value.Value) any {
	if v == nil {
		return nil
	}
	switch v.ID() {
	case value.Bool:
		b, _ := v.Bool()
		return b
	case value.Char:
		c, _ := v.Char()
		return float64(c)
	case value.Short:
		s, _ := v.Short()
		return float64(s)
	case value.Int:
		i, _ := v.Int()
		return float64(i)
	case value.Long:
		l, _ := v.Long()
		return float64(l)
	case value.Float:
		f, _ := v.Float()
		return float64(f)
	case value.Double:
		d, _ := v.Double()
		return d
	case value.String:
		s, _ := v.String()
		return s
	case value.Array:
		elems, _ := v.ToArray()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = nativeFromValue(e)
		}
		return out
	case value.Map:
		pairs, _ := v.ToMap()
		out := make(map[string]any, len(pairs))
		for _, p := range pairs {
			k, _ := p.Key.String()
			out[k] = nativeFromValue(p.Value)
		}
		return out
	case value.Null, value.Invalid:
		return nil
	default:
		return v.Stringify()
	}
}

// valueFromNative is the inverse of nativeFromValue for the subset of
// types structpb.Struct.AsMap() can produce.
func valueFromNative(n any) *value.Value {
	switch t := n.(type) {
	case nil:
		return value.CreateNull()
	case bool:
		return value.CreateBool(t)
	case float64:
		return value.CreateDouble(t)
	case string:
		return value.CreateString(t)
	case []any:
		elems := make([]*value.Value, len(t))
		for i, e := range t {
			elems[i] = valueFromNative(e)
		}
		return value.CreateArray(elems)
	case map[string]any:
		pairs := make([]value.Pair, 0, len(t))
		for k, v := range t {
			pairs = append(pairs, value.Pair{Key: value.CreateString(k), Value: valueFromNative(v)})
		}
		return value.CreateMap(pairs)
	default:
		return value.CreateNull()
	}
}
