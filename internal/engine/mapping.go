package engine

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/textdex/internal/domain/document"
	"github.com/kailas-cloud/textdex/internal/domain/schema"
)

// MappingBuilder is a fluent builder for bleve index mappings.
// Every mapped field is stored so hits can be hydrated from a snapshot.
type MappingBuilder struct {
	doc          *mapping.DocumentMapping
	names        map[string]bool
	defaultField string
}

// NewMapping starts building a mapping. The document id is always mapped as a keyword.
func NewMapping() *MappingBuilder {
	b := &MappingBuilder{
		doc:   bleve.NewDocumentMapping(),
		names: make(map[string]bool),
	}
	return b.Keyword(document.FieldID)
}

// Keyword adds a field indexed as a single exact-match term.
func (b *MappingBuilder) Keyword(name string) *MappingBuilder {
	fm := bleve.NewKeywordFieldMapping()
	fm.Analyzer = keyword.Name
	fm.Store = true
	return b.add(name, fm)
}

// Text adds an analyzed full-text field.
func (b *MappingBuilder) Text(name string) *MappingBuilder {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = standard.Name
	fm.Store = true
	return b.add(name, fm)
}

// Numeric adds a numeric field usable in range queries.
func (b *MappingBuilder) Numeric(name string) *MappingBuilder {
	fm := bleve.NewNumericFieldMapping()
	fm.Store = true
	return b.add(name, fm)
}

// DefaultField sets the field un-fielded query-string terms match against.
func (b *MappingBuilder) DefaultField(name string) *MappingBuilder {
	b.defaultField = name
	return b
}

func (b *MappingBuilder) add(name string, fm *mapping.FieldMapping) *MappingBuilder {
	b.doc.AddFieldMappingsAt(name, fm)
	b.names[name] = true
	return b
}

// Build validates and returns the index mapping.
func (b *MappingBuilder) Build() (*mapping.IndexMappingImpl, error) {
	if b.defaultField != "" && !b.names[b.defaultField] {
		return nil, fmt.Errorf("default field %q is not mapped", b.defaultField)
	}
	im := bleve.NewIndexMapping()
	im.DefaultMapping = b.doc
	im.DefaultAnalyzer = standard.Name
	if b.defaultField != "" {
		im.DefaultField = b.defaultField
	}
	if err := im.Validate(); err != nil {
		return nil, fmt.Errorf("validate mapping: %w", err)
	}
	return im, nil
}

// MustBuild is like Build but panics on error.
func (b *MappingBuilder) MustBuild() *mapping.IndexMappingImpl {
	im, err := b.Build()
	if err != nil {
		panic(err)
	}
	return im
}

// MappingFromSchema builds the index mapping for a schema.
func MappingFromSchema(s schema.Schema) (*mapping.IndexMappingImpl, error) {
	b := NewMapping()
	for _, f := range s.Fields() {
		switch f.FieldType() {
		case schema.Keyword:
			b.Keyword(f.Name())
		case schema.Text:
			b.Text(f.Name())
		case schema.Numeric:
			b.Numeric(f.Name())
		default:
			return nil, fmt.Errorf("unsupported field type %q for %q", f.FieldType(), f.Name())
		}
	}
	return b.DefaultField(s.DefaultField()).Build()
}
