package schema

import (
	"fmt"

	"github.com/kailas-cloud/textdex/internal/domain/document"
)

// Type is the indexing type of a field.
type Type string

// Field type constants.
const (
	// Keyword is indexed as a single exact-match term.
	Keyword Type = "keyword"
	// Text is analyzed into tokens for full-text matching.
	Text    Type = "text"
	Numeric Type = "numeric"
)

// MaxFields is the maximum number of fields in a schema.
const MaxFields = 64

var reservedFieldNames = map[string]bool{
	document.FieldID: true, "_id": true, "_all": true, "_score": true,
}

// Field is an immutable value object describing an indexed, stored field.
type Field struct {
	name      string
	fieldType Type
}

// NewField validates and creates a Field.
func NewField(name string, ft Type) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if len(name) > 64 {
		return Field{}, fmt.Errorf("field name %q too long (max 64)", name)
	}
	if reservedFieldNames[name] {
		return Field{}, fmt.Errorf("field name %q is reserved", name)
	}
	switch ft {
	case Keyword, Text, Numeric:
	default:
		return Field{}, fmt.Errorf("invalid field type %q for %q", ft, name)
	}
	return Field{name: name, fieldType: ft}, nil
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// FieldType returns the field's indexing type.
func (f Field) FieldType() Type { return f.fieldType }

// Schema lists the indexed fields and the field un-fielded query terms target.
type Schema struct {
	fields       []Field
	defaultField string
}

// New validates and creates a Schema. defaultField must name a Text field.
func New(fields []Field, defaultField string) (Schema, error) {
	if len(fields) > MaxFields {
		return Schema{}, fmt.Errorf("too many fields (max %d)", MaxFields)
	}
	seen := make(map[string]Type, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Name()]; dup {
			return Schema{}, fmt.Errorf("duplicate field name: %s", f.Name())
		}
		seen[f.Name()] = f.FieldType()
	}
	if defaultField != "" && seen[defaultField] != Text {
		return Schema{}, fmt.Errorf("default field %q must be a text field", defaultField)
	}
	return Schema{fields: append([]Field(nil), fields...), defaultField: defaultField}, nil
}

// Article returns the schema of the title/status/time article documents.
func Article() Schema {
	return Schema{
		fields: []Field{
			{name: document.FieldTitle, fieldType: Text},
			{name: document.FieldStatus, fieldType: Keyword},
			{name: document.FieldTime, fieldType: Numeric},
		},
		defaultField: document.FieldTitle,
	}
}

// Fields returns a copy of the schema fields.
func (s Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// DefaultField returns the field un-fielded text query terms match against.
func (s Schema) DefaultField() string { return s.defaultField }

// Lookup returns the field with the given name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Extend returns a schema with fields appended, keeping the default field.
func (s Schema) Extend(fields ...Field) (Schema, error) {
	all := append(s.Fields(), fields...)
	return New(all, s.defaultField)
}
