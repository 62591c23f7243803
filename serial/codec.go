// Package serial defines the pluggable encode/decode bridge between a
// Value graph and a portable wire format A format
// plugin implements Codec; package jsoncodec is the reference JSON
// implementation.
package serial

import "github.com/metacall/metacall-go/value"

// Codec is a pluggable wire-format plugin: name, file extension, and the
// serialize/deserialize pair ("a format plugin declares
// name + extension + pair {serialize, deserialize, ...}").
type Codec interface {
	Name() string
	Extension() string
	Serialize(v *value.Value) ([]byte, error)
	Deserialize(data []byte) (*value.Value, error)
}

// Registry is a name-keyed directory of Codec implementations, mirroring
// typesys.Registry's per-name lookup shape.
type Registry struct {
	codecs map[string]Codec
}

// NewRegistry creates an empty codec registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// Register records c under its own Name().
func (r *Registry) Register(c Codec) {
	r.codecs[c.Name()] = c
}

// Lookup returns the codec registered under name, if any.
func (r *Registry) Lookup(name string) (Codec, bool) {
	c, ok := r.codecs[name]
	return c, ok
}
