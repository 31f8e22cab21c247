package bridge

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
)

// FieldKind is the JSON type a field must carry.
type FieldKind int

const (
	KindString FieldKind = iota
	KindBool
	KindNumber
	KindObject
	KindList
	KindStringList
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindObject:
		return "object"
	case KindList:
		return "array"
	case KindStringList:
		return "string array"
	default:
		return "unknown"
	}
}

// Field declares one argument of a channel.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
}

// Schema is the fixed shape of a channel's argument object. Fields that are
// not declared are ignored.
type Schema []Field

func required(name string, kind FieldKind) Field { return Field{Name: name, Kind: kind, Required: true} }
func optional(name string, kind FieldKind) Field { return Field{Name: name, Kind: kind} }

// Validate checks presence and kind of every declared field.
func (s Schema) Validate(args Args) error {
	for _, f := range s {
		v, present := args[f.Name]
		if !present || v == nil {
			if f.Required {
				return fmt.Errorf("%s is required", f.Name)
			}
			continue
		}
		if !f.Kind.matches(v) {
			return fmt.Errorf("%s must be a %s", f.Name, f.Kind)
		}
	}
	return nil
}

func (k FieldKind) matches(v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindNumber:
		_, ok := v.(float64)
		return ok
	case KindObject:
		_, ok := v.(map[string]any)
		return ok
	case KindList:
		_, ok := v.([]any)
		return ok
	case KindStringList:
		list, ok := v.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	}
	return false
}

// Args is a decoded argument object.
type Args map[string]any

// decodeArgs parses a JSON object; an empty payload or null is an empty object.
func decodeArgs(payload []byte) (Args, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Args{}, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("arguments must be an object")
	}
	var args map[string]any
	if err := sonic.Unmarshal(trimmed, &args); err != nil {
		return nil, fmt.Errorf("malformed arguments: %w", err)
	}
	return Args(args), nil
}

// String returns a string field or "".
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Bool returns a bool field or false.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Strings returns a string list field or nil.
func (a Args) Strings(name string) []string {
	list, _ := a[name].([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// List returns a list field or nil.
func (a Args) List(name string) []any {
	list, _ := a[name].([]any)
	return list
}
