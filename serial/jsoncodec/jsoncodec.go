// Package jsoncodec is the reference serial.Codec implementation: a
// straightforward, dependency-free mapping from a Value graph onto plain
// JSON.
package jsoncodec

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/metacall/metacall-go/reflect"
	"github.com/metacall/metacall-go/value"
)

// Codec implements serial.Codec for the JSON wire format.
type Codec struct{}

// New creates a JSON Codec.
func New() *Codec { return &Codec{} }

func (Codec) Name() string      { return "json" }
func (Codec) Extension() string { return ".json" }

// tag strings used for the entity kinds that have no portable JSON shape.
const (
	tagFunction = "[Function]"
	tagClass    = "[Class]"
	tagObject   = "[Object]"
	tagFuture   = "[Future]"
	tagPointer  = "[Pointer]"
)

// bufferEnvelope is the {"data":[u8,...], "length": N} shape for Buffer values.
type bufferEnvelope struct {
	Data   []byte `json:"data"`
	Length int    `json:"length"`
}

// exceptionEnvelope is the {"message":...,"label":...,"code":...,"stacktrace":...} shape.
type exceptionEnvelope struct {
	Message    string `json:"message"`
	Label      string `json:"label"`
	Code       int    `json:"code"`
	Stacktrace string `json:"stacktrace"`
}

// throwableEnvelope is the {"ExceptionThrown": <inner>} shape.
type throwableEnvelope struct {
	ExceptionThrown json.RawMessage `json:"ExceptionThrown"`
}

// Serialize converts v into its JSON wire representation.
func (c Codec) Serialize(v *value.Value) ([]byte, error) {
	node, err := encode(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(node)
}

func encode(v *value.Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch v.ID() {
	case value.Bool:
		b, _ := v.Bool()
		return b, nil
	case value.Char:
		ch, _ := v.Char()
		return float64(ch), nil
	case value.Short:
		s, _ := v.Short()
		return float64(s), nil
	case value.Int:
		i, _ := v.Int()
		return float64(i), nil
	case value.Long:
		l, _ := v.Long()
		// Longs outside the float64-exact range are emitted as a string
		// to avoid silent precision loss on parsers with no 64-bit int.
		if l > math.MaxInt64>>11 || l < -(math.MaxInt64>>11) {
			return fmt.Sprintf("%d", l), nil
		}
		return float64(l), nil
	case value.Float:
		f, _ := v.Float()
		return float64(f), nil
	case value.Double:
		d, _ := v.Double()
		return d, nil
	case value.String:
		s, _ := v.String()
		return s, nil
	case value.Buffer:
		b, _ := v.Buffer()
		// A []byte field would marshal as a base64 string; emit the bytes
		// as a JSON array of numbers instead (bufferEnvelope decodes both).
		data := make([]int, len(b))
		for i, x := range b {
			data[i] = int(x)
		}
		return map[string]any{"data": data, "length": len(b)}, nil
	case value.Array:
		elems, _ := v.ToArray()
		out := make([]any, len(elems))
		for i, e := range elems {
			n, err := encode(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case value.Map:
		return encodeMap(v)
	case value.Exception:
		ent, _ := v.AsEntity()
		exc := ent.(*reflect.Exception)
		return exceptionEnvelope{Message: exc.Message, Label: exc.Label, Code: exc.Code, Stacktrace: exc.Stacktrace}, nil
	case value.Throwable:
		ent, _ := v.AsEntity()
		th := ent.(*reflect.Throwable)
		inner, err := encode(th.Inner)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(inner)
		if err != nil {
			return nil, err
		}
		return throwableEnvelope{ExceptionThrown: raw}, nil
	case value.Function:
		return tagFunction, nil
	case value.Class:
		return tagClass, nil
	case value.Object:
		return tagObject, nil
	case value.Future:
		return tagFuture, nil
	case value.Pointer:
		return tagPointer, nil
	case value.Null, value.Invalid:
		return nil, nil
	default:
		return nil, fmt.Errorf("jsoncodec: cannot serialize value of id %s", v.ID())
	}
}

// encodeMap emits a JSON object when every key is a string, or a JSON
// array of 2-element arrays otherwise.
func encodeMap(v *value.Value) (any, error) {
	pairs, err := v.ToMap()
	if err != nil {
		return nil, err
	}
	allStringKeys := true
	for _, p := range pairs {
		if p.Key.ID() != value.String {
			allStringKeys = false
			break
		}
	}
	if allStringKeys {
		obj := make(map[string]any, len(pairs))
		for _, p := range pairs {
			k, _ := p.Key.String()
			n, err := encode(p.Value)
			if err != nil {
				return nil, err
			}
			obj[k] = n
		}
		return obj, nil
	}
	rows := make([][2]any, len(pairs))
	for i, p := range pairs {
		kn, err := encode(p.Key)
		if err != nil {
			return nil, err
		}
		vn, err := encode(p.Value)
		if err != nil {
			return nil, err
		}
		rows[i] = [2]any{kn, vn}
	}
	return rows, nil
}

// Deserialize is the inverse of Serialize. Entities that were emitted as
// their tag string (Function/Class/Object/Future/Pointer) decode back as
// that literal string, not as the original entity — JSON has no channel
// to carry a live reflection handle back in. A non-empty JSON array (at
// any nesting depth) whose every element is itself a
// 2-element array decodes as a Map (mirroring the non-string-key
// encoding rule); any other array decodes as an Array. This is a
// documented heuristic, not a perfect inverse of Serialize, since plain
// JSON carries no type tag for that ambiguity.
func (c Codec) Deserialize(data []byte) (*value.Value, error) {
	var node any
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	return decode(node)
}

// decode rebuilds a Value from a node produced by encoding/json's generic
// any-decode. It never threads the original byte slice down the
// recursion: a Buffer/Exception/Throwable envelope found nested inside an
// Array or Map is re-marshalled from its own map[string]any node before
// being unmarshalled into its typed envelope, so the shape is recognized
// at any nesting depth, not just at the document root.
func decode(node any) (*value.Value, error) {
	switch n := node.(type) {
	case nil:
		return value.CreateNull(), nil
	case bool:
		return value.CreateBool(n), nil
	case float64:
		return value.CreateDouble(n), nil
	case string:
		return value.CreateString(n), nil
	case []any:
		return decodeArrayOrMap(n)
	case map[string]any:
		return decodeObject(n)
	default:
		return nil, fmt.Errorf("jsoncodec: unexpected JSON node type %T", node)
	}
}

func decodeArrayOrMap(elems []any) (*value.Value, error) {
	if looksLikePairs(elems) {
		pairs := make([]value.Pair, len(elems))
		for i, e := range elems {
			row := e.([]any)
			k, err := decode(row[0])
			if err != nil {
				return nil, err
			}
			v, err := decode(row[1])
			if err != nil {
				return nil, err
			}
			pairs[i] = value.Pair{Key: k, Value: v}
		}
		return value.CreateMap(pairs), nil
	}
	out := make([]*value.Value, len(elems))
	for i, e := range elems {
		v, err := decode(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return value.CreateArray(out), nil
}

func looksLikePairs(elems []any) bool {
	if len(elems) == 0 {
		return false
	}
	for _, e := range elems {
		row, ok := e.([]any)
		if !ok || len(row) != 2 {
			return false
		}
	}
	return true
}

func decodeObject(obj map[string]any) (*value.Value, error) {
	if _, ok := obj["data"]; ok {
		if _, ok := obj["length"]; ok {
			raw, err := json.Marshal(obj)
			if err != nil {
				return nil, err
			}
			var env bufferEnvelope
			if err := json.Unmarshal(raw, &env); err == nil {
				return value.CreateBuffer(env.Data), nil
			}
		}
	}
	if _, ok := obj["ExceptionThrown"]; ok {
		raw, err := json.Marshal(obj)
		if err != nil {
			return nil, err
		}
		var env throwableEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, err
		}
		var innerNode any
		if err := json.Unmarshal(env.ExceptionThrown, &innerNode); err != nil {
			return nil, err
		}
		inner, err := decode(innerNode)
		if err != nil {
			return nil, err
		}
		return reflect.NewThrowableValue(inner), nil
	}
	if _, mok := obj["message"]; mok {
		if _, lok := obj["label"]; lok {
			raw, err := json.Marshal(obj)
			if err != nil {
				return nil, err
			}
			var env exceptionEnvelope
			if err := json.Unmarshal(raw, &env); err != nil {
				return nil, err
			}
			return reflect.NewExceptionValue(env.Label, env.Message, env.Code, env.Stacktrace), nil
		}
	}
	pairs := make([]value.Pair, 0, len(obj))
	for k, v := range obj {
		dv, err := decode(v)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, value.Pair{Key: value.CreateString(k), Value: dv})
	}
	return value.CreateMap(pairs), nil
}
