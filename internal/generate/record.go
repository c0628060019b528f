package generate

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Field is a single named value of a projected record.
type Field struct {
	Name  string
	Value any
}

// Record is a flat, ordered mapping from field name to value. Field order
// follows the schema of the configuration that produced it.
type Record struct {
	fields []Field
}

// NewRecord builds a record from fields in the given order.
func NewRecord(fields ...Field) Record {
	return Record{fields: append([]Field(nil), fields...)}
}

// Get returns the value of the named field.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Len is the number of fields.
func (r Record) Len() int { return len(r.fields) }

// Names returns field names in record order.
func (r Record) Names() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Name
	}
	return out
}

// Fields returns a copy of the fields in record order.
func (r Record) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// Map returns the record as an unordered map.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		out[f.Name] = f.Value
	}
	return out
}

func (r *Record) add(name string, v any) {
	r.fields = append(r.fields, Field{Name: name, Value: v})
}

// MarshalJSON encodes the record as a JSON object, keeping field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the record as a YAML mapping, keeping field order.
func (r Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range r.fields {
		var k, v yaml.Node
		if err := k.Encode(f.Name); err != nil {
			return nil, err
		}
		if err := v.Encode(f.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &k, &v)
	}
	return node, nil
}

// Example is one generated (key, record) pair. Key is the zero-based
// position of the source element in its JSON array.
type Example struct {
	Key    int    `json:"key" yaml:"key"`
	Record Record `json:"record" yaml:"record"`
}
