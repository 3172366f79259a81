package vm_test

import "testing"

// Mirrors original_source/tests/external.rs: externally-dispatched calls
// run through the full pipeline and their effect is observed via captured
// print output, not by inspecting the registry directly.

func TestFunctionalExternalUUID(t *testing.T) {
	out, machine := run(t, `
		var id = uuid_new();
		print id;
	`)
	if len(out) < 2 { // trailing newline plus a non-empty UUID string
		t.Fatalf("got %q, want a non-empty uuid followed by a newline", out)
	}
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}

func TestFunctionalExternalUUIDDistinctPerCall(t *testing.T) {
	out, _ := run(t, `
		print uuid_new();
		print uuid_new();
	`)
	lines := splitLines(out)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), out)
	}
	if lines[0] == lines[1] {
		t.Errorf("expected two calls to uuid_new to return distinct values, got %q twice", lines[0])
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return lines
}

func TestFunctionalExternalStoreRoundTrip(t *testing.T) {
	out, machine := run(t, `
		store_set("name", "glint");
		print store_get("name");
	`)
	if out != "glint\n" {
		t.Errorf("got %q, want %q", out, "glint\n")
	}
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}

func TestFunctionalExternalStoreMissingKey(t *testing.T) {
	out, _ := run(t, `
		print store_get("absent");
	`)
	if out != "\n" {
		t.Errorf("got %q, want an empty line for a missing key", out)
	}
}

func TestFunctionalExternalStoreResultUsedAsArgument(t *testing.T) {
	out, _ := run(t, `
		fun shout(s str) str { return s; }
		store_set("word", "hi");
		print shout(store_get("word"));
	`)
	if out != "hi\n" {
		t.Errorf("got %q, want %q", out, "hi\n")
	}
}
