package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-store/layering"
)

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors is a flat list of state paths and Go types.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI is an OpenAPI document describing the state tree.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument is a generated schema and its format. Document must be
// JSON serializable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
	Modules  []ModuleDescription
}

// SchemaGenerator describes a state value. Implementations must be safe for
// concurrent use and return an empty document for nil input.
type SchemaGenerator interface {
	Generate(value any) (SchemaDocument, error)
}

// FieldDescriptor is one leaf of the state tree.
type FieldDescriptor struct {
	Path string
	Type string
}

// DefaultSchemaGenerator returns the descriptor generator used when no other
// generator is configured.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

// Schema describes the current state shape with the configured generator.
// The module inventory is attached to the document.
func (s *Store) Schema() (SchemaDocument, error) {
	generator := s.cfg.schemaGenerator
	if generator == nil {
		generator = DefaultSchemaGenerator()
	}
	doc, err := generator.Generate(s.Snapshot())
	if err != nil {
		return SchemaDocument{}, fmt.Errorf("store: generate schema: %w", err)
	}
	doc.Modules = s.Describe().Modules
	return doc, nil
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(value any) (SchemaDocument, error) {
	descriptors := deriveFieldDescriptors(layering.Clone(value), "")
	if descriptors == nil {
		descriptors = []FieldDescriptor{}
	}
	return SchemaDocument{Format: SchemaFormatDescriptors, Document: descriptors}, nil
}

func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	switch typed := value.(type) {
	case nil:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Type: "nil"}}
	case map[string]any:
		if len(typed) == 0 {
			return []FieldDescriptor{{Path: prefix, Type: "map[string]any"}}
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var fields []FieldDescriptor
		for _, key := range keys {
			fields = append(fields, deriveFieldDescriptors(typed[key], joinField(prefix, key))...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = fmt.Sprintf("%T", typed[0])
		}
		return []FieldDescriptor{{Path: prefix, Type: "[]" + elementType}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Type: fmt.Sprintf("%T", typed)}}
	}
}

func joinField(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
