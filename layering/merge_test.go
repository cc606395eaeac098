package layering

import (
	"reflect"
	"testing"
	"time"
)

func TestMergeLayers(t *testing.T) {
	tests := []struct {
		name   string
		layers []map[string]any
		want   map[string]any
	}{
		{
			name: "strong scalar wins",
			layers: []map[string]any{
				{"count": 5},
				{"count": 1, "label": "weak"},
			},
			want: map[string]any{"count": 5, "label": "weak"},
		},
		{
			name: "nested maps merge key by key",
			layers: []map[string]any{
				{"cart": map[string]any{"items": []any{"a"}}},
				{"cart": map[string]any{"items": []any{"b", "c"}, "total": 2}},
			},
			want: map[string]any{"cart": map[string]any{"items": []any{"a"}, "total": 2}},
		},
		{
			name: "weakest layer fills missing modules",
			layers: []map[string]any{
				{"a": map[string]any{"x": 1}},
				{},
				{"b": map[string]any{"y": 2}},
			},
			want: map[string]any{"a": map[string]any{"x": 1}, "b": map[string]any{"y": 2}},
		},
		{
			name: "type change replaces weaker value",
			layers: []map[string]any{
				{"v": "now a string"},
				{"v": map[string]any{"was": "map"}},
			},
			want: map[string]any{"v": "now a string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeLayers(tt.layers...)
			if !reflect.DeepEqual(tt.want, got) {
				t.Fatalf("merged mismatch:\nwant: %#v\n got: %#v", tt.want, got)
			}
		})
	}
}

func TestMergeLayersDoesNotAlias(t *testing.T) {
	strong := map[string]any{"a": map[string]any{"x": 1}}
	weak := map[string]any{"b": map[string]any{"y": 2}}

	got := MergeLayers(strong, weak)
	got["a"].(map[string]any)["x"] = 99
	got["b"].(map[string]any)["y"] = 99

	if strong["a"].(map[string]any)["x"] != 1 || weak["b"].(map[string]any)["y"] != 2 {
		t.Fatalf("expected inputs untouched, got strong=%v weak=%v", strong, weak)
	}
}

func TestMergeLayersZeroInput(t *testing.T) {
	if got := MergeLayers[map[string]any](); got != nil {
		t.Fatalf("expected nil map, got %#v", got)
	}
}

func TestClone(t *testing.T) {
	type item struct {
		Name string
		Tags []string
		at   time.Time
	}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	src := map[string]any{
		"count": 1,
		"items": []any{map[string]any{"id": 1}},
		"item":  item{Name: "a", Tags: []string{"x"}, at: at},
		"ptr":   &item{Name: "p"},
		"when":  at,
		"none":  nil,
	}

	got := Clone(src)
	if !reflect.DeepEqual(src, got) {
		t.Fatalf("clone mismatch:\nwant: %#v\n got: %#v", src, got)
	}

	got["items"].([]any)[0].(map[string]any)["id"] = 2
	got["ptr"].(*item).Name = "changed"
	got["item"].(item).Tags[0] = "changed"
	if src["items"].([]any)[0].(map[string]any)["id"] != 1 {
		t.Fatalf("expected nested map to be copied")
	}
	if src["ptr"].(*item).Name != "p" {
		t.Fatalf("expected pointer target to be copied")
	}
	if src["item"].(item).Tags[0] != "x" {
		t.Fatalf("expected struct slices to be copied")
	}
	if !got["when"].(time.Time).Equal(at) || got["item"].(item).at != at {
		t.Fatalf("expected time values preserved, got %v", got["when"])
	}
}

func TestCloneNil(t *testing.T) {
	var state map[string]any
	if got := Clone(state); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
	if got := Clone[any](nil); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}
