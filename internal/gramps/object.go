package gramps

import (
	"github.com/spf13/cast"
)

// Object is a decoded JSON object from the API. Gramps records are loosely
// typed, so accessors coerce and return zero values instead of failing.
type Object map[string]any

// AsObject converts a decoded JSON value into an Object, or nil.
func AsObject(v any) Object {
	switch t := v.(type) {
	case Object:
		return t
	case map[string]any:
		return Object(t)
	default:
		return nil
	}
}

// AsList returns v as a list, or nil.
func AsList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

// AsObjects returns the object items of a list, skipping anything else.
func AsObjects(v any) []Object {
	var out []Object
	for _, item := range AsList(v) {
		if o := AsObject(item); o != nil {
			out = append(out, o)
		}
	}
	return out
}

// Has reports whether key is present (even if null).
func (o Object) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Str returns key as a string; missing and null give "".
func (o Object) Str(key string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

// StrOr returns key as a string, or def when it is empty.
func (o Object) StrOr(key, def string) string {
	if s := o.Str(key); s != "" {
		return s
	}
	return def
}

// Int returns key as an int, 0 when missing or not numeric.
func (o Object) Int(key string) int {
	return cast.ToInt(o[key])
}

// IntOr returns key as an int, or def when the key is absent or null.
func (o Object) IntOr(key string, def int) int {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return n
}

// Float returns key as a float64.
func (o Object) Float(key string) float64 {
	return cast.ToFloat64(o[key])
}

// Bool returns key as a bool.
func (o Object) Bool(key string) bool {
	return cast.ToBool(o[key])
}

// Obj returns the nested object under key, or nil.
func (o Object) Obj(key string) Object {
	return AsObject(o[key])
}

// List returns the list under key, or nil.
func (o Object) List(key string) []any {
	return AsList(o[key])
}

// Objects returns the object items of the list under key.
func (o Object) Objects(key string) []Object {
	return AsObjects(o[key])
}

// Strings returns the string items of the list under key.
func (o Object) Strings(key string) []string {
	var out []string
	for _, item := range o.List(key) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Path walks nested objects and returns the value at the end, or nil.
func (o Object) Path(keys ...string) any {
	var cur any = o
	for _, k := range keys {
		obj := AsObject(cur)
		if obj == nil {
			return nil
		}
		cur = obj[k]
	}
	return cur
}

// Handle returns the record handle.
func (o Object) Handle() string { return o.Str("handle") }

// GrampsID returns the user-facing Gramps ID.
func (o Object) GrampsID() string { return o.Str("gramps_id") }

// Extended returns the "extended" block added by extend=... requests.
func (o Object) Extended() Object { return o.Obj("extended") }

// Clone returns a deep copy so callers can edit without touching shared data.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	return AsObject(cloneValue(map[string]any(o)))
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case Object:
		return cloneValue(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
