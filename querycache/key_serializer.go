package querycache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// KeySeparator delimits the segments of a derived cache key.
const KeySeparator = "::"

// KeySerializer derives a cache key for a logical query. Implementations
// must produce stable keys across calls within one process, and keys must be
// a faithful encoding of query identity: two logically different queries
// must not serialize to the same key.
type KeySerializer interface {
	SerializeKey(query string, args ...any) string
}

// queryKeySerializer keys on the query text plus every bound argument,
// serialized deterministically via reflection. This is the default: the same
// statement with different parameters produces distinct keys.
type queryKeySerializer struct{}

// NewQueryKeySerializer creates the default serializer.
func NewQueryKeySerializer() KeySerializer {
	return &queryKeySerializer{}
}

// textKeySerializer keys on the query text alone, ignoring bound arguments.
// Two calls sharing a statement but differing in parameters collide; see the
// package documentation before choosing this mode.
type textKeySerializer struct{}

// NewTextKeySerializer creates a serializer that ignores bound arguments.
func NewTextKeySerializer() KeySerializer {
	return &textKeySerializer{}
}

func (s *textKeySerializer) SerializeKey(query string, _ ...any) string {
	return query
}

// SerializeKey builds a key from the query text and arguments.
func (s *queryKeySerializer) SerializeKey(query string, args ...any) string {
	if len(args) == 0 {
		return query
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, query)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}
	return strings.Join(parts, KeySeparator)
}

// serializeValue renders one argument deterministically based on its kind.
func (s *queryKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()

	switch rt.Kind() {
	case reflect.Func:
		// Function identity is stable only within a single process.
		return fmt.Sprintf("func:%p", v)
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	case reflect.Ptr:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.Interface:
		if rv.IsNil() {
			return "interface:nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return s.serializeSequence("slice", rv)
	case reflect.Array:
		return s.serializeSequence("array", rv)
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.serializeMap(rv)
	case reflect.Struct:
		return s.serializeStruct(rv, rt)
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return fmt.Sprintf("%v", v)
	}

	return s.jsonFallback(v)
}

func (s *queryKeySerializer) serializeSequence(label string, rv reflect.Value) string {
	length := rv.Len()
	parts := make([]string, length)
	for i := 0; i < length; i++ {
		parts[i] = s.serializeValue(rv.Index(i).Interface())
	}
	return fmt.Sprintf("%s[%d]:{%s}", label, length, strings.Join(parts, ","))
}

// serializeMap renders key=value pairs sorted by serialized key so iteration
// order never leaks into the cache key.
func (s *queryKeySerializer) serializeMap(rv reflect.Value) string {
	iter := rv.MapRange()
	pairs := make([]string, 0, rv.Len())
	for iter.Next() {
		pairs = append(pairs, fmt.Sprintf("%s=%s",
			s.serializeValue(iter.Key().Interface()),
			s.serializeValue(iter.Value().Interface())))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

func (s *queryKeySerializer) serializeStruct(rv reflect.Value, rt reflect.Type) string {
	parts := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		value := rv.Field(i)
		if !value.CanInterface() {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%s", field.Name, s.serializeValue(value.Interface())))
	}
	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

// jsonFallback covers kinds with no dedicated rendering. Stability wins over
// precision here: when marshaling fails the key degrades to type information
// instead of failing the call.
func (s *queryKeySerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("fallback:%s", reflect.TypeOf(v).String())
	}
	return fmt.Sprintf("json:%s", string(data))
}
