package dispatch

import (
	"encoding/json"

	"github.com/metacall/metacall-go/loader"
	"github.com/metacall/metacall-go/reflect"
	"github.com/metacall/metacall-go/scope"
	"github.com/metacall/metacall-go/typesys"
)

// FuncInspect is one entry of the "funcs" array in the introspection
// document.
type FuncInspect struct {
	Name      string           `json:"name"`
	Async     bool             `json:"async"`
	Signature SignatureInspect `json:"signature"`
}

// SignatureInspect is the {"args":[...],"ret":...} shape.
type SignatureInspect struct {
	Args []ArgInspect `json:"args"`
	Ret  *TypeInspect `json:"ret"`
}

// ArgInspect is one {"name":...,"type":...} signature slot.
type ArgInspect struct {
	Name string       `json:"name"`
	Type *TypeInspect `json:"type"`
}

// TypeInspect carries the numerically-stable type id alongside its
// backend-registered name scenario 5.
type TypeInspect struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ClassInspect is one entry of the "classes" array.
type ClassInspect struct {
	Name             string                    `json:"name"`
	Constructors     []SignatureInspect        `json:"constructors"`
	Methods          map[string][]FuncInspect  `json:"methods"`
	StaticMethods    map[string][]FuncInspect  `json:"static_methods"`
	Attributes       map[string]AttributeInspect `json:"attributes"`
	StaticAttributes map[string]AttributeInspect `json:"static_attributes"`
}

// AttributeInspect is one {"type":...} attribute descriptor.
type AttributeInspect struct {
	Type *TypeInspect `json:"type"`
}

// ScopeInspect is the {"name":...,"funcs":...,"classes":...,"objects":...} shape.
type ScopeInspect struct {
	Name    string         `json:"name"`
	Funcs   []FuncInspect  `json:"funcs"`
	Classes []ClassInspect `json:"classes"`
	Objects []string       `json:"objects"`
}

// HandleInspect is one {"name":...,"scope":...} entry.
type HandleInspect struct {
	Name  string       `json:"name"`
	Scope ScopeInspect `json:"scope"`
}

// Inspect renders every loader's handles into the introspection document
// shape:
// { "<tag>": [ {"name":..., "scope": {...}}, ... ] }.
func (d *Dispatcher) Inspect() ([]byte, error) {
	doc := make(map[string][]HandleInspect)
	for _, tag := range d.registry.Tags() {
		l, ok := d.registry.Lookup(tag)
		if !ok {
			continue
		}
		var entries []HandleInspect
		for _, h := range l.Handles() {
			entries = append(entries, inspectHandle(h))
		}
		doc[tag] = entries
	}
	return json.Marshal(doc)
}

func inspectHandle(h *loader.Handle) HandleInspect {
	return HandleInspect{Name: h.Name, Scope: inspectScope(h.Context.Root())}
}

func inspectScope(s *scope.Scope) ScopeInspect {
	out := ScopeInspect{Name: "", Funcs: []FuncInspect{}, Classes: []ClassInspect{}, Objects: []string{}}
	for _, name := range s.Names() {
		v, ok := s.GetLocal(name)
		if !ok {
			continue
		}
		ent, err := v.AsEntity()
		if err != nil {
			continue
		}
		switch e := ent.(type) {
		case *reflect.Function:
			out.Funcs = append(out.Funcs, inspectFunc(e))
		case *reflect.Class:
			out.Classes = append(out.Classes, inspectClass(e))
		case *reflect.Object:
			out.Objects = append(out.Objects, e.Name)
		}
	}
	return out
}

func inspectFunc(f *reflect.Function) FuncInspect {
	return FuncInspect{Name: f.Name, Async: f.Async, Signature: inspectSignature(f.Signature)}
}

func inspectSignature(sig *reflect.Signature) SignatureInspect {
	args := make([]ArgInspect, 0, sig.Arity())
	for _, slot := range sig.Slots() {
		args = append(args, ArgInspect{Name: slot.Name, Type: inspectType(slot.Type)})
	}
	return SignatureInspect{Args: args, Ret: inspectType(sig.Return())}
}

func inspectType(t *typesys.Type) *TypeInspect {
	if t == nil {
		return nil
	}
	return &TypeInspect{ID: int(t.ID), Name: t.Name}
}

func inspectClass(c *reflect.Class) ClassInspect {
	ci := ClassInspect{
		Name:             c.Name,
		Methods:          make(map[string][]FuncInspect),
		StaticMethods:    make(map[string][]FuncInspect),
		Attributes:       make(map[string]AttributeInspect),
		StaticAttributes: make(map[string]AttributeInspect),
	}
	for _, ctor := range c.Constructors {
		ci.Constructors = append(ci.Constructors, inspectSignature(ctor.Signature))
	}
	for name, methods := range c.Methods {
		for _, m := range methods {
			ci.Methods[name] = append(ci.Methods[name], FuncInspect{Name: m.Name, Async: m.Async, Signature: inspectSignature(m.Signature)})
		}
	}
	for name, methods := range c.StaticMethods {
		for _, m := range methods {
			ci.StaticMethods[name] = append(ci.StaticMethods[name], FuncInspect{Name: m.Name, Async: m.Async, Signature: inspectSignature(m.Signature)})
		}
	}
	for name, attr := range c.Attributes {
		ci.Attributes[name] = AttributeInspect{Type: inspectType(attr.Type)}
	}
	for name, attr := range c.StaticAttributes {
		ci.StaticAttributes[name] = AttributeInspect{Type: inspectType(attr.Type)}
	}
	return ci
}
