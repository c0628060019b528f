package catalog

import "strings"

// FeatureType is the declared value type of a record field.
type FeatureType string

const (
	String        FeatureType = "string"
	Int32         FeatureType = "int32"
	Int32Sequence FeatureType = "sequence<int32>"
)

// Field names shared by every Fermi configuration.
const (
	FieldQuestion      = "question"
	FieldProgram       = "program"
	FieldAnswer        = "answer"
	FieldContext       = "context"
	FieldTemplate      = "template"
	FieldHop           = "hop"
	FieldFactTransform = "fact_transform"
)

// Feature describes one field in a schema: its name and declared type.
type Feature struct {
	Name string      `json:"name" yaml:"name"`
	Type FeatureType `json:"type" yaml:"type"`
}

// Schema is the ordered set of features a record must carry.
type Schema []Feature

// Names returns the feature names in declaration order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}

// Lookup returns the feature with the given name.
func (s Schema) Lookup(name string) (Feature, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// String renders the schema as "name:type, ..." for logs and tables.
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.Name + ":" + string(f.Type)
	}
	return strings.Join(parts, ", ")
}

func baseSchema() Schema {
	return Schema{
		{Name: FieldQuestion, Type: String},
		{Name: FieldProgram, Type: String},
		{Name: FieldAnswer, Type: String},
		{Name: FieldContext, Type: String},
	}
}

// buildSchema appends the optional feature groups to the mandatory four.
func buildSchema(templated, distractor bool) Schema {
	s := baseSchema()
	if templated {
		s = append(s,
			Feature{Name: FieldTemplate, Type: String},
			Feature{Name: FieldHop, Type: Int32},
		)
	}
	if distractor {
		s = append(s, Feature{Name: FieldFactTransform, Type: Int32Sequence})
	}
	return s
}
