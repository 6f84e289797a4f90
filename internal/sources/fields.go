package sources

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

// FieldClass is the kind of value a backend field holds
type FieldClass string

const (
	// FieldString is a free text field
	FieldString FieldClass = "string"
	// FieldPassword is a text field rendered as a password input
	FieldPassword FieldClass = "password"
	// FieldInteger is a whole number field
	FieldInteger FieldClass = "integer"
	// FieldBoolean is a true/false field
	FieldBoolean FieldClass = "boolean"
	// FieldChoice is a text field restricted to a list of choices
	FieldChoice FieldClass = "choice"
)

// Choice is an allowed value of a choice field
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field describes one entry of a source's backend data
type Field struct {
	Label     string     `json:"label"`
	HelpText  string     `json:"help_text,omitempty"`
	Class     FieldClass `json:"class"`
	Default   any        `json:"default,omitempty"`
	Required  bool       `json:"required"`
	MaxLength int        `json:"max_length,omitempty"`
	MinValue  *int       `json:"min_value,omitempty"`
	Choices   []Choice   `json:"choices,omitempty"`
}

// Schema describes the setup form of a backend
type Schema struct {
	Fields     map[string]Field  `json:"fields"`
	Widgets    map[string]string `json:"widgets"`
	FieldOrder []string          `json:"field_order"`
}

func minValue(n int) *int {
	return &n
}

// merge returns a copy of s with the fields, widgets and order of other appended
func (s Schema) merge(other Schema) Schema {
	out := Schema{
		Fields:     make(map[string]Field, len(s.Fields)+len(other.Fields)),
		Widgets:    make(map[string]string, len(s.Widgets)+len(other.Widgets)),
		FieldOrder: append(append([]string{}, s.FieldOrder...), other.FieldOrder...),
	}
	for name, f := range s.Fields {
		out.Fields[name] = f
	}
	for name, f := range other.Fields {
		out.Fields[name] = f
	}
	for name, w := range s.Widgets {
		out.Widgets[name] = w
	}
	for name, w := range other.Widgets {
		out.Widgets[name] = w
	}
	return out
}

// names returns the field names in field order, then alphabetically for unordered fields
func (s Schema) names() []string {
	seen := make(map[string]bool, len(s.Fields))
	names := make([]string, 0, len(s.Fields))
	for _, name := range s.FieldOrder {
		if _, ok := s.Fields[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	rest := make([]string, 0)
	for name := range s.Fields {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// JSONSchema renders the fields as a JSON Schema document
func (s Schema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0)

	for _, name := range s.names() {
		f := s.Fields[name]
		prop := map[string]any{"title": f.Label}
		if f.HelpText != "" {
			prop["description"] = f.HelpText
		}

		switch f.Class {
		case FieldInteger:
			prop["type"] = "integer"
			if f.MinValue != nil {
				prop["minimum"] = *f.MinValue
			}
		case FieldBoolean:
			prop["type"] = "boolean"
		case FieldChoice:
			prop["type"] = "string"
			enum := make([]any, 0, len(f.Choices))
			for _, c := range f.Choices {
				enum = append(enum, c.Value)
			}
			prop["enum"] = enum
		default:
			prop["type"] = "string"
			if f.MaxLength > 0 {
				prop["maxLength"] = f.MaxLength
			}
			if f.Required {
				prop["minLength"] = 1
			}
		}

		properties[name] = prop
		if f.Required {
			required = append(required, name)
		}
	}

	return map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// ApplyDefaults drops null values and fills absent fields with their defaults
func (s Schema) ApplyDefaults(data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+len(s.Fields))
	for k, v := range data {
		if v != nil {
			out[k] = v
		}
	}
	for name, f := range s.Fields {
		if _, ok := out[name]; !ok && f.Default != nil {
			out[name] = f.Default
		}
	}
	return out
}

const schemaResource = "backend-data.json"

// validateData checks data against the JSON Schema of the fields
func (s Schema) validateData(data map[string]any) error {
	schemaDoc, err := toJSONValue(s.JSONSchema())
	if err != nil {
		return err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResource, schemaDoc); err != nil {
		return fmt.Errorf("failed to load backend schema: %w", err)
	}
	compiled, err := compiler.Compile(schemaResource)
	if err != nil {
		return fmt.Errorf("failed to compile backend schema: %w", err)
	}

	instance, err := toJSONValue(data)
	if err != nil {
		return err
	}

	err = compiled.Validate(instance)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}

	result := &ValidationError{}
	s.collect(ve, data, result)
	if result.Empty() {
		result.Add("", ve.Error())
	}
	return result
}

func (s Schema) collect(ve *jsonschema.ValidationError, data map[string]any, out *ValidationError) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			s.collect(cause, data, out)
		}
		return
	}

	if _, ok := ve.ErrorKind.(*kind.Required); ok {
		for _, name := range s.names() {
			if _, present := data[name]; !present && s.Fields[name].Required {
				out.Add(name, "This field is required.")
			}
		}
		return
	}

	field := strings.Join(ve.InstanceLocation, ".")
	f := s.Fields[field]
	switch ve.ErrorKind.(type) {
	case *kind.MinLength:
		out.Add(field, "This field is required.")
	case *kind.MaxLength:
		out.Add(field, fmt.Sprintf("Ensure this value has at most %d characters.", f.MaxLength))
	case *kind.Minimum:
		if f.MinValue != nil {
			out.Add(field, fmt.Sprintf("Ensure this value is greater than or equal to %d.", *f.MinValue))
		} else {
			out.Add(field, "Value is too small.")
		}
	case *kind.Enum:
		out.Add(field, "Select a valid choice.")
	case *kind.Type:
		out.Add(field, fmt.Sprintf("Enter a valid %s value.", f.Class))
	default:
		out.Add(field, ve.Error())
	}
}

func toJSONValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}
