package tools

import (
	"context"
	"encoding/json"
	"testing"
)

func namedTool(name, description string) Tool {
	return Tool{
		Schema: Schema{Name: name, Description: description},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			return description, nil
		},
	}
}

func TestRegistryPreservesOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(namedTool("charlie", "third"))
	r.Register(namedTool("alpha", "first"))
	r.Register(namedTool("bravo", "second"))

	want := []string{"charlie", "alpha", "bravo"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() returned %d names, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	schemas := r.Schemas()
	for i := range want {
		if schemas[i].Name != want[i] {
			t.Errorf("Schemas()[%d].Name = %q, want %q", i, schemas[i].Name, want[i])
		}
	}
}

func TestRegistryOverwriteKeepsPosition(t *testing.T) {
	r := NewRegistry()
	r.Register(namedTool("alpha", "original"))
	r.Register(namedTool("bravo", "other"))
	r.Register(namedTool("alpha", "replacement"))

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	tool, ok := r.Resolve("alpha")
	if !ok {
		t.Fatal("Resolve(alpha) not found")
	}
	out, err := tool.Handler(context.Background(), nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if out != "replacement" {
		t.Errorf("handler returned %v, want replacement", out)
	}

	names := r.Names()
	if names[0] != "alpha" || names[1] != "bravo" {
		t.Errorf("Names() = %v, want [alpha bravo]", names)
	}
}

func TestRegistryResolveMissing(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Resolve("nothing"); ok {
		t.Error("Resolve on empty registry reported a tool")
	}
	if r.Has("nothing") {
		t.Error("Has on empty registry reported a tool")
	}
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: ""},
		{name: "string passthrough", value: "hello", want: "hello"},
		{name: "struct to json", value: map[string]int{"n": 3}, want: `{"n":3}`},
		{name: "number to json", value: 42, want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Serialize(tt.value)
			if err != nil {
				t.Fatalf("Serialize: %v", err)
			}
			if got != tt.want {
				t.Errorf("Serialize(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
