package sources

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// Data gives typed access to a source's backend data, falling back to the
// backend field defaults for absent keys
type Data struct {
	raw    []byte
	fields map[string]Field
}

// NewData wraps raw backend data for the given schema
func NewData(raw json.RawMessage, schema Schema) Data {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return Data{raw: raw, fields: schema.Fields}
}

// DataFromMap encodes a map as backend data
func DataFromMap(values map[string]any, schema Schema) (Data, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return Data{}, fmt.Errorf("failed to encode backend data: %w", err)
	}
	return NewData(raw, schema), nil
}

// Raw returns the encoded backend data
func (d Data) Raw() json.RawMessage {
	return d.raw
}

// Map decodes the backend data into a map
func (d Data) Map() map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(d.raw, &out)
	return out
}

// Has reports whether the key is present and not null
func (d Data) Has(key string) bool {
	r := d.get(key)
	return r.Exists() && r.Type != gjson.Null
}

func (d Data) get(key string) gjson.Result {
	return gjson.GetBytes(d.raw, gjson.Escape(key))
}

// String returns a string value
func (d Data) String(key string) string {
	if r := d.get(key); r.Exists() && r.Type != gjson.Null {
		return r.String()
	}
	if f, ok := d.fields[key]; ok && f.Default != nil {
		return fmt.Sprint(f.Default)
	}
	return ""
}

// Int returns an integer value. Numeric strings are accepted.
func (d Data) Int(key string) int64 {
	if r := d.get(key); r.Exists() && r.Type != gjson.Null {
		if r.Type == gjson.String {
			n, err := strconv.ParseInt(r.Str, 10, 64)
			if err != nil {
				return 0
			}
			return n
		}
		return r.Int()
	}
	if f, ok := d.fields[key]; ok {
		switch v := f.Default.(type) {
		case int:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}

// Bool returns a boolean value
func (d Data) Bool(key string) bool {
	if r := d.get(key); r.Exists() && r.Type != gjson.Null {
		return r.Bool()
	}
	if f, ok := d.fields[key]; ok {
		if v, ok := f.Default.(bool); ok {
			return v
		}
	}
	return false
}
