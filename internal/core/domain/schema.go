package domain

import (
	"fmt"
	"strings"
)

// FieldType is the declared value type of an extraction field.
// It is carried as a formatting hint; returned values are always text.
type FieldType string

// Available field types.
const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeDate    FieldType = "date"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeList    FieldType = "list"
)

// IsValid returns true if the field type is recognised.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeString, FieldTypeNumber, FieldTypeDate, FieldTypeBoolean, FieldTypeList:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t FieldType) String() string {
	return string(t)
}

// AllFieldTypes returns every recognised field type.
func AllFieldTypes() []FieldType {
	return []FieldType{
		FieldTypeString,
		FieldTypeNumber,
		FieldTypeDate,
		FieldTypeBoolean,
		FieldTypeList,
	}
}

// ExtractionField declares one piece of information to extract from a document.
type ExtractionField struct {
	// Name is unique within its schema.
	Name string `json:"name"`

	// Description is natural-language guidance for the model.
	Description string `json:"description"`

	// Type defaults to string when empty.
	Type FieldType `json:"type,omitempty"`

	// Required is informational and not enforced on results.
	Required bool `json:"required,omitempty"`
}

// ExtractionSchema is a named, ordered list of fields.
type ExtractionSchema struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Fields      []ExtractionField `json:"fields"`
}

// Normalise fills default field types in place.
func (s *ExtractionSchema) Normalise() {
	for i := range s.Fields {
		if s.Fields[i].Type == "" {
			s.Fields[i].Type = FieldTypeString
		}
	}
}

// Validate checks the schema name, field names and field types.
// Field order is significant and preserved.
func (s *ExtractionSchema) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: schema name is required", ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%w: field %d has no name", ErrInvalidInput, i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field name %q", ErrInvalidInput, f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.Type != "" && !f.Type.IsValid() {
			return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidInput, f.Name, f.Type)
		}
	}
	return nil
}

// FieldNames returns the field names in declaration order.
func (s *ExtractionSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}
