package ext_test

import (
	"testing"

	"github.com/glintlang/glint/internal/ext"
)

func TestRegistryLookupUUID(t *testing.T) {
	r := ext.New(nil)
	typ, args, ret, ok := r.Lookup("uuid_new")
	if !ok {
		t.Fatal("expected uuid_new to be registered")
	}
	if typ == nil || ret == nil {
		t.Fatal("expected non-nil signature types")
	}
	if len(args) != 0 {
		t.Errorf("got %d args, want 0", len(args))
	}
}

func TestRegistryLookupUnknown(t *testing.T) {
	r := ext.New(nil)
	if _, _, _, ok := r.Lookup("does_not_exist"); ok {
		t.Fatal("expected lookup of an unregistered name to fail")
	}
}

func TestRegistryCallUUID(t *testing.T) {
	r := ext.New(nil)
	idx, ok := r.Index("uuid_new")
	if !ok {
		t.Fatal("expected uuid_new to have a fixed slot")
	}
	a, err := r.Call(idx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	b, err := r.Call(idx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if a.Str == "" || b.Str == "" {
		t.Fatal("expected uuid_new to return a non-empty string")
	}
	if a.Str == b.Str {
		t.Errorf("expected two calls to uuid_new to return distinct values, got %q twice", a.Str)
	}
}

func TestRegistryCallStoreRoundTrip(t *testing.T) {
	store, err := ext.OpenStore(":memory:")
	if err != nil {
		t.Fatalf("opening store: %s", err)
	}
	defer store.Close()

	r := ext.New(store)
	setIdx, ok := r.Index("store_set")
	if !ok {
		t.Fatal("expected store_set to have a fixed slot")
	}
	getIdx, ok := r.Index("store_get")
	if !ok {
		t.Fatal("expected store_get to have a fixed slot")
	}

	ok1, err := r.Call(setIdx, []ext.Value{{Str: "greeting"}, {Str: "hello"}})
	if err != nil {
		t.Fatalf("store_set: unexpected error: %s", err)
	}
	if !ok1.Bool {
		t.Error("expected store_set to report success")
	}

	got, err := r.Call(getIdx, []ext.Value{{Str: "greeting"}})
	if err != nil {
		t.Fatalf("store_get: unexpected error: %s", err)
	}
	if got.Str != "hello" {
		t.Errorf("got %q, want %q", got.Str, "hello")
	}
}

func TestRegistryCallStoreMissingKey(t *testing.T) {
	store, err := ext.OpenStore(":memory:")
	if err != nil {
		t.Fatalf("opening store: %s", err)
	}
	defer store.Close()

	r := ext.New(store)
	getIdx, _ := r.Index("store_get")
	got, err := r.Call(getIdx, []ext.Value{{Str: "absent"}})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.Str != "" {
		t.Errorf("got %q, want empty string for a missing key", got.Str)
	}
}

func TestRegistryCallStoreOverwrite(t *testing.T) {
	store, err := ext.OpenStore(":memory:")
	if err != nil {
		t.Fatalf("opening store: %s", err)
	}
	defer store.Close()

	r := ext.New(store)
	setIdx, _ := r.Index("store_set")
	getIdx, _ := r.Index("store_get")

	if _, err := r.Call(setIdx, []ext.Value{{Str: "k"}, {Str: "v1"}}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := r.Call(setIdx, []ext.Value{{Str: "k"}, {Str: "v2"}}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	got, err := r.Call(getIdx, []ext.Value{{Str: "k"}})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.Str != "v2" {
		t.Errorf("got %q, want %q after overwrite", got.Str, "v2")
	}
}
