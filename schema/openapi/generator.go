// Package openapi renders store state as an OpenAPI 3 document. Each
// top-level state object, usually a module, becomes a named component the
// root schema references.
package openapi

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
	"unicode"

	store "github.com/goliatone/go-store"
)

// GeneratorOption configures the generator.
type GeneratorOption func(*generator)

// WithOpenAPIVersion overrides the "openapi" field.
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(g *generator) {
		if version = strings.TrimSpace(version); version != "" {
			g.version = version
		}
	}
}

// WithInfo sets the document title and version.
func WithInfo(title, version string) GeneratorOption {
	return func(g *generator) {
		if title = strings.TrimSpace(title); title != "" {
			g.title = title
		}
		if version = strings.TrimSpace(version); version != "" {
			g.infoVersion = version
		}
	}
}

// WithRootComponent names the component holding the root state schema.
func WithRootComponent(name string) GeneratorOption {
	return func(g *generator) {
		if name = strings.TrimSpace(name); name != "" {
			g.root = name
		}
	}
}

type generator struct {
	version     string
	title       string
	infoVersion string
	root        string
}

// NewGenerator constructs an OpenAPI schema generator.
func NewGenerator(opts ...GeneratorOption) store.SchemaGenerator {
	g := generator{
		version:     "3.0.3",
		title:       "Store State",
		infoVersion: "1.0.0",
		root:        "State",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&g)
		}
	}
	return g
}

// Option wires the generator into a store.
func Option(opts ...GeneratorOption) store.Option {
	return store.WithSchemaGenerator(NewGenerator(opts...))
}

func (g generator) Generate(value any) (store.SchemaDocument, error) {
	schemas := map[string]any{}
	root, err := buildSchema(reflect.ValueOf(value))
	if err != nil {
		return store.SchemaDocument{}, err
	}

	if props, ok := root["properties"].(map[string]any); ok {
		for _, key := range sortedNames(props) {
			child, ok := props[key].(map[string]any)
			if !ok || child["type"] != "object" {
				continue
			}
			name := componentName(key)
			if _, taken := schemas[name]; taken || name == g.root {
				continue
			}
			schemas[name] = child
			props[key] = map[string]any{"$ref": "#/components/schemas/" + name}
		}
	}
	schemas[g.root] = root

	document := map[string]any{
		"openapi": g.version,
		"info": map[string]any{
			"title":   g.title,
			"version": g.infoVersion,
		},
		"paths": map[string]any{},
		"components": map[string]any{
			"schemas": schemas,
		},
	}
	return store.SchemaDocument{Format: store.SchemaFormatOpenAPI, Document: document}, nil
}

// componentName turns a state key such as "shopping_cart" into
// "ShoppingCart".
func componentName(key string) string {
	var b strings.Builder
	upper := true
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Module"
	}
	return b.String()
}

func buildSchema(rv reflect.Value) (map[string]any, error) {
	if !rv.IsValid() {
		return map[string]any{"type": "object", "nullable": true}, nil
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return map[string]any{"nullable": true}, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Struct:
		if rv.Type() == reflect.TypeOf(time.Time{}) {
			return map[string]any{"type": "string", "format": "date-time"}, nil
		}
		return schemaForStruct(rv)
	case reflect.Map:
		return schemaForMap(rv)
	case reflect.Slice, reflect.Array:
		return schemaForSlice(rv)
	default:
		return nil, fmt.Errorf("openapi: %s values cannot be described", rv.Type())
	}
}

func schemaForMap(rv reflect.Value) (map[string]any, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("openapi: map key type %s unsupported", rv.Type().Key())
	}
	properties := map[string]any{}
	iter := rv.MapRange()
	for iter.Next() {
		child, err := buildSchema(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", iter.Key().String(), err)
		}
		properties[iter.Key().String()] = child
	}
	return map[string]any{"type": "object", "properties": properties}, nil
}

func schemaForStruct(rv reflect.Value) (map[string]any, error) {
	rt := rv.Type()
	properties := map[string]any{}
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		child, err := buildSchema(rv.Field(i))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		properties[name] = child
	}
	return map[string]any{"type": "object", "properties": properties}, nil
}

func schemaForSlice(rv reflect.Value) (map[string]any, error) {
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return map[string]any{"type": "string", "format": "byte"}, nil
	}
	items := map[string]any{}
	if rv.Len() > 0 {
		var err error
		if items, err = buildSchema(rv.Index(0)); err != nil {
			return nil, err
		}
	}
	return map[string]any{"type": "array", "items": items}, nil
}

func sortedNames(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
