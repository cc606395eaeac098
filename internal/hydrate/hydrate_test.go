package hydrate

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type addItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Extra    any    `json:"extra,omitempty"`
}

func TestDecoderDecode(t *testing.T) {
	tests := []struct {
		name    string
		opts    []DecoderOption[addItem]
		payload any
		want    addItem
		wantErr string
	}{
		{
			name:    "map payload",
			payload: map[string]any{"id": "sku-1", "quantity": 2},
			want:    addItem{ID: "sku-1", Quantity: 2},
		},
		{
			name:    "typed payload passes through",
			payload: addItem{ID: "sku-2", Quantity: 1},
			want:    addItem{ID: "sku-2", Quantity: 1},
		},
		{
			name:    "unknown fields ignored by default",
			payload: map[string]any{"id": "sku-3", "color": "red"},
			want:    addItem{ID: "sku-3"},
		},
		{
			name:    "unknown fields rejected when strict",
			opts:    []DecoderOption[addItem]{WithDisallowUnknownFields[addItem]()},
			payload: map[string]any{"id": "sku-3", "color": "red"},
			wantErr: "unknown field",
		},
		{
			name: "pre hook normalizes keys",
			opts: []DecoderOption[addItem]{WithPreHook[addItem](func(_ Context, in map[string]any) (map[string]any, error) {
				in["id"] = strings.ToUpper(in["id"].(string))
				return in, nil
			})},
			payload: map[string]any{"id": "sku-4"},
			want:    addItem{ID: "SKU-4"},
		},
		{
			name: "post hook validates",
			opts: []DecoderOption[addItem]{WithPostHook[addItem](func(_ Context, v *addItem) error {
				if v.Quantity <= 0 {
					return errors.New("quantity must be positive")
				}
				return nil
			})},
			payload: map[string]any{"id": "sku-5"},
			wantErr: "quantity must be positive",
		},
		{
			name:    "nil payload",
			payload: nil,
			wantErr: "payload is nil",
		},
		{
			name:    "mismatched shape",
			payload: []any{1, 2},
			wantErr: "hydrate: decode cart/add",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDecoder(tt.opts...).Decode(Context{Type: "cart/add"}, tt.payload)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecoderUseNumber(t *testing.T) {
	got, err := NewDecoder(WithUseNumber[addItem]()).Decode(Context{}, map[string]any{"extra": 1.5})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got.Extra.(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", got.Extra)
	}
}

func TestContextString(t *testing.T) {
	if got := (Context{Namespace: "cart/"}).String(); got != "cart/" {
		t.Fatalf("got %q", got)
	}
	if got := (Context{}).String(); got != "value" {
		t.Fatalf("got %q", got)
	}
}
