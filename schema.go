package textdex

import (
	"fmt"
	"reflect"
	"strings"
)

const tagKey = "textdex"

// schemaMeta holds parsed struct tag metadata, cached per TypedIndex.
type schemaMeta struct {
	typ    reflect.Type
	idIdx  int
	fields []fieldMapping
}

type fieldMapping struct {
	structIdx int
	name      string
	typ       FieldType
}

// parseSchema reflects on T and extracts textdex struct tag metadata.
// Tags look like `textdex:"name,id"` or `textdex:"name,text|keyword|numeric"`.
func parseSchema[T any]() (*schemaMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("textdex: type %v is not a struct", t)
	}

	meta := &schemaMeta{typ: t, idIdx: -1}
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		if err := applyTag(meta, i, f, tag); err != nil {
			return nil, err
		}
	}
	if meta.idIdx == -1 {
		return nil, fmt.Errorf("textdex: no field with `textdex:\"...,id\"` tag in %s", t)
	}
	return meta, nil
}

// applyTag processes a single struct field's textdex tag.
func applyTag(meta *schemaMeta, idx int, f reflect.StructField, tag string) error {
	name, modifier, _ := strings.Cut(tag, ",")
	if name == "" {
		name = strings.ToLower(f.Name)
	}

	switch modifier {
	case "id":
		if meta.idIdx != -1 {
			return fmt.Errorf("textdex: duplicate id tag on field %s", f.Name)
		}
		if f.Type.Kind() != reflect.String {
			return fmt.Errorf("textdex: id field %s must be a string", f.Name)
		}
		meta.idIdx = idx
		return nil
	case string(FieldText), string(FieldKeyword):
		if !isStringish(f.Type) {
			return fmt.Errorf("textdex: %s field %s must be a string or []string", modifier, f.Name)
		}
	case string(FieldNumeric):
		if !isNumber(f.Type.Kind()) {
			return fmt.Errorf("textdex: numeric field %s must be an integer or float", f.Name)
		}
	default:
		return fmt.Errorf("textdex: unknown modifier %q on field %s", modifier, f.Name)
	}

	for _, fm := range meta.fields {
		if fm.name == name {
			return fmt.Errorf("textdex: duplicate field name %q", name)
		}
	}
	meta.fields = append(meta.fields, fieldMapping{structIdx: idx, name: name, typ: FieldType(modifier)})
	return nil
}

// checkAgainst verifies every tagged field is indexed with the same type.
func (m *schemaMeta) checkAgainst(s Schema) error {
	for _, fm := range m.fields {
		f, ok := s.Lookup(fm.name)
		if !ok {
			return fmt.Errorf("textdex: field %q is not in the index schema", fm.name)
		}
		if f.FieldType() != fm.typ {
			return fmt.Errorf("textdex: field %q is %s in the index, tagged %s", fm.name, f.FieldType(), fm.typ)
		}
	}
	return nil
}

// toDocument converts a typed struct to a Document.
func (m *schemaMeta) toDocument(item any) (Document, error) {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	fields := make(map[string][]any, len(m.fields))
	for _, fm := range m.fields {
		fv := v.Field(fm.structIdx)
		switch {
		case fv.Kind() == reflect.Slice:
			values := make([]any, 0, fv.Len())
			for i := range fv.Len() {
				values = append(values, fv.Index(i).String())
			}
			fields[fm.name] = values
		case fv.Kind() == reflect.String:
			fields[fm.name] = []any{fv.String()}
		default:
			fields[fm.name] = []any{toNumber(fv)}
		}
	}
	return NewDocument(v.Field(m.idIdx).String(), fields)
}

// fromDocument converts a Document back to a typed struct.
func (m *schemaMeta) fromDocument(doc Document) any {
	v := reflect.New(m.typ).Elem()
	v.Field(m.idIdx).SetString(doc.ID())

	for _, fm := range m.fields {
		values := doc.Values(fm.name)
		if len(values) == 0 {
			continue
		}
		fv := v.Field(fm.structIdx)
		switch fv.Kind() {
		case reflect.Slice:
			out := reflect.MakeSlice(fv.Type(), 0, len(values))
			for _, val := range values {
				out = reflect.Append(out, reflect.ValueOf(fmt.Sprint(val)).Convert(fv.Type().Elem()))
			}
			fv.Set(out)
		case reflect.String:
			fv.SetString(fmt.Sprint(values[0]))
		default:
			setNumber(fv, values[0])
		}
	}
	return v.Interface()
}

func isStringish(t reflect.Type) bool {
	if t.Kind() == reflect.String {
		return true
	}
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.String
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func toNumber(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	default:
		return v.Int()
	}
}

func setNumber(v reflect.Value, val any) {
	var f float64
	var i int64
	switch n := val.(type) {
	case int64:
		f, i = float64(n), n
	case float64:
		f, i = n, int64(n)
	default:
		return
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		v.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(uint64(i))
	}
}
