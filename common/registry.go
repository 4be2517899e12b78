package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"reflect"
	"sync"
)

// registry maps a type key to a zero value of the registered type. Strategy
// packages (activators, losses, regularizers, scalers) add to it in their
// init functions so interface-valued fields survive a JSON round trip.
var registry = struct {
	sync.RWMutex
	types map[string]reflect.Type
}{types: make(map[string]reflect.Type)}

// ErrRoundTrip is returned by CheckRoundTrip when the decoded value differs
// from the encoded one.
var ErrRoundTrip = errors.New("common: value does not survive a JSON round trip")

// NotRegistered is returned when encoding or decoding a type that was never
// passed to Register.
type NotRegistered struct {
	Type string
}

func (n *NotRegistered) Error() string {
	return fmt.Sprintf("common: type %s not registered", n.Type)
}

// typeKey is the package path and type name of i, with a trailing "*" for
// pointer values. A type and a pointer to it are distinct keys.
func typeKey(i interface{}) string {
	t := reflect.TypeOf(i)
	suffix := ""
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
		suffix = "*"
	}
	return path.Join(t.PkgPath(), t.Name()) + suffix
}

// Register records the concrete type of i so that it can be encoded and
// decoded as an interface value with InterfaceMarshaler. Like gob.Register,
// Register panics if the same key is registered twice.
func Register(i interface{}) {
	key := typeKey(i)
	t := reflect.TypeOf(i)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.types[key]; ok {
		panic("common/Register: type " + key + " already registered")
	}
	registry.types[key] = t
}

// newFromKey returns a pointer to a fresh value of the registered type and
// whether the key names a pointer type.
func newFromKey(key string) (interface{}, bool, error) {
	registry.RLock()
	t, ok := registry.types[key]
	registry.RUnlock()
	if !ok {
		return nil, false, &NotRegistered{Type: key}
	}
	isPtr := key[len(key)-1] == '*'
	return reflect.New(t).Interface(), isPtr, nil
}

// InterfaceMarshaler wraps an interface value for JSON. The encoded form is
// {"Type": key, "Value": value}; decoding looks the key up in the registry.
type InterfaceMarshaler struct {
	I interface{}
}

type typedValue struct {
	Type  string
	Value interface{}
}

type typedRaw struct {
	Type  string
	Value json.RawMessage
}

func (m InterfaceMarshaler) MarshalJSON() ([]byte, error) {
	key := typeKey(m.I)
	registry.RLock()
	_, ok := registry.types[key]
	registry.RUnlock()
	if !ok {
		return nil, &NotRegistered{Type: key}
	}
	return json.Marshal(typedValue{Type: key, Value: m.I})
}

func (m *InterfaceMarshaler) UnmarshalJSON(data []byte) error {
	raw := &typedRaw{}
	if err := json.Unmarshal(data, raw); err != nil {
		return err
	}
	val, isPtr, err := newFromKey(raw.Type)
	if err != nil {
		return fmt.Errorf("common: unmarshaling interface: %w", err)
	}
	if len(raw.Value) > 0 {
		if err := json.Unmarshal(raw.Value, val); err != nil {
			return err
		}
	}
	if !isPtr {
		val = reflect.ValueOf(val).Elem().Interface()
	}
	m.I = val
	return nil
}

// CheckRoundTrip encodes i through InterfaceMarshaler, decodes it again and
// reports ErrRoundTrip if the result is not deeply equal to i.
func CheckRoundTrip(i interface{}) error {
	b, err := json.Marshal(&InterfaceMarshaler{I: i})
	if err != nil {
		return err
	}
	back := &InterfaceMarshaler{}
	if err := json.Unmarshal(b, back); err != nil {
		return err
	}
	if !reflect.DeepEqual(i, back.I) {
		return ErrRoundTrip
	}
	return nil
}
