package document

import (
	"fmt"
	"maps"
	"slices"
)

// Well-known field names of the article schema.
const (
	FieldID     = "id"
	FieldTitle  = "title"
	FieldStatus = "status"
	FieldTime   = "time"
)

// MaxIDLength is the maximum document id length in bytes.
const MaxIDLength = 256

var reservedFieldNames = map[string]bool{
	FieldID: true, "_id": true, "_all": true, "_score": true,
}

// Document is an immutable bag of field values keyed by a unique id.
// Upserting a document with an existing id replaces the stored one.
type Document struct {
	id     string
	fields map[string][]any
}

// New validates and creates a Document.
// Values must be string, bool, int, int64 or float64; ints are widened to int64.
// The time field only accepts integer values.
func New(id string, fields map[string][]any) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document id is required")
	}
	if len(id) > MaxIDLength {
		return Document{}, fmt.Errorf("document id too long (max %d)", MaxIDLength)
	}

	normalized := make(map[string][]any, len(fields))
	for name, values := range fields {
		if name == "" {
			return Document{}, fmt.Errorf("document %q: field name is required", id)
		}
		if reservedFieldNames[name] {
			return Document{}, fmt.Errorf("document %q: field name %q is reserved", id, name)
		}
		if len(values) == 0 {
			continue
		}
		out := make([]any, 0, len(values))
		for _, v := range values {
			nv, err := normalize(name, v)
			if err != nil {
				return Document{}, fmt.Errorf("document %q: %w", id, err)
			}
			out = append(out, nv)
		}
		normalized[name] = out
	}

	return Document{id: id, fields: normalized}, nil
}

// NewArticle builds a document with the title/status/time fields set.
func NewArticle(id, title, status string, timeMillis int64) (Document, error) {
	return New(id, map[string][]any{
		FieldTitle:  {title},
		FieldStatus: {status},
		FieldTime:   {timeMillis},
	})
}

// Reconstruct creates a Document without validation (snapshot hydration).
func Reconstruct(id string, fields map[string][]any) Document {
	return Document{id: id, fields: fields}
}

// ID returns the document key.
func (d Document) ID() string { return d.id }

// Fields returns a copy of the field map.
func (d Document) Fields() map[string][]any {
	c := make(map[string][]any, len(d.fields))
	for k, v := range d.fields {
		c[k] = slices.Clone(v)
	}
	return c
}

// FieldNames returns the field names in sorted order.
func (d Document) FieldNames() []string {
	return slices.Sorted(maps.Keys(d.fields))
}

// Values returns all values stored under name.
func (d Document) Values(name string) []any { return slices.Clone(d.fields[name]) }

// Get returns the first value stored under name.
func (d Document) Get(name string) (any, bool) {
	vs := d.fields[name]
	if len(vs) == 0 {
		return nil, false
	}
	return vs[0], true
}

// String returns the first value of name formatted as a string, or "".
func (d Document) String(name string) string {
	v, ok := d.Get(name)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int64 returns the first value of name as an int64.
func (d Document) Int64(name string) (int64, bool) {
	v, ok := d.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// Title returns the title field.
func (d Document) Title() string { return d.String(FieldTitle) }

// Status returns the status field.
func (d Document) Status() string { return d.String(FieldStatus) }

// Time returns the time field in epoch milliseconds.
func (d Document) Time() (int64, bool) { return d.Int64(FieldTime) }

func normalize(name string, v any) (any, error) {
	switch n := v.(type) {
	case string, bool:
		if name == FieldTime {
			return nil, fmt.Errorf("field %q must be an integer, got %T", name, v)
		}
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if name == FieldTime {
			if n != float64(int64(n)) {
				return nil, fmt.Errorf("field %q must be an integer, got %v", name, n)
			}
			return int64(n), nil
		}
		return n, nil
	default:
		return nil, fmt.Errorf("field %q: unsupported value type %T", name, v)
	}
}
