package state

import (
	"context"
	"testing"

	perr "hrhub/internal/platform/errors"
)

func TestCanonicalJSONSortsKeysAndCompacts(t *testing.T) {
	t.Parallel()
	got, err := CanonicalJSON(map[string]any{
		"b": 1,
		"a": map[string]any{"z": true, "y": "s"},
		"c": []any{"x", 2},
	})
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	want := `{"a":{"y":"s","z":true},"b":1,"c":["x",2]}`
	if string(got) != want {
		t.Fatalf("canonical = %s, want %s", got, want)
	}
}

func TestCanonicalJSONStructAndMapAgree(t *testing.T) {
	t.Parallel()
	type row struct {
		Name  string  `json:"name"`
		Email string  `json:"email"`
		Rate  float64 `json:"rate"`
	}
	a, err := CanonicalJSON(row{Name: "Ada", Email: "ada@x.io", Rate: 12.5})
	if err != nil {
		t.Fatalf("CanonicalJSON struct: %v", err)
	}
	b, err := CanonicalJSON(map[string]any{"rate": 12.5, "name": "Ada", "email": "ada@x.io"})
	if err != nil {
		t.Fatalf("CanonicalJSON map: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("struct %s != map %s", a, b)
	}
}

func TestDigestStableAcrossKeyOrder(t *testing.T) {
	t.Parallel()
	d1, err := Digest(map[string]any{"x": 1, "y": "two"})
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	d2, err := Digest(map[string]any{"y": "two", "x": 1})
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if d1 != d2 {
		t.Fatalf("digest differs across key order: %s vs %s", d1, d2)
	}
	if len(d1) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(d1))
	}

	d3, err := Digest(map[string]any{"x": 2, "y": "two"})
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if d3 == d1 {
		t.Fatalf("digest should change when a value changes")
	}
}

func TestDigestKeepsNumberFormatting(t *testing.T) {
	t.Parallel()
	// integers must not grow a trailing .0 through canonicalization
	got, err := CanonicalJSON(map[string]any{"n": 60720})
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	if string(got) != `{"n":60720}` {
		t.Fatalf("canonical int = %s", got)
	}
}

func TestMemoryBlobs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "missing.json"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing object should be NotFound, got %v", err)
	}
	if err := m.Put(ctx, "a.json", []byte(`{"k":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := m.Get(ctx, "a.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"k":1}` {
		t.Fatalf("Get = %s", got)
	}

	// mutations of the returned slice must not leak into the store
	got[0] = 'X'
	again, _ := m.Get(ctx, "a.json")
	if string(again) != `{"k":1}` {
		t.Fatalf("stored bytes mutated: %s", again)
	}
}
