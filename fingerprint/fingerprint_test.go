package fingerprint

import (
	"testing"
)

func TestText_Deterministic(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	if a, b := Text(text), Text(text); a != b {
		t.Errorf("identical texts produced different fingerprints: %064b vs %064b", a, b)
	}
}

func TestText_CaseInsensitive(t *testing.T) {
	if Text("Hello World") != Text("hello world") {
		t.Error("fingerprint should ignore letter case")
	}
}

func TestText_SingleWord(t *testing.T) {
	if Text("hello") == 0 {
		t.Error("single word should produce a non-zero fingerprint")
	}
}

func TestSnapshot_TextOnly(t *testing.T) {
	text := "price dropped to nine dollars"
	if got, want := Snapshot(text, ""), Text(text); got != want {
		t.Errorf("Snapshot without markup = %064b, want %064b", got, want)
	}
}

func TestEmptyInputs(t *testing.T) {
	tests := []struct {
		name string
		got  uint64
	}{
		{"empty text", Text("")},
		{"whitespace text", Text("  \t\n ")},
		{"empty html", Structure("")},
		{"plain text html", Structure("no tags here")},
		{"empty snapshot", Snapshot("", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != 0 {
				t.Errorf("got %064b, want 0", tt.got)
			}
		})
	}
}

func TestStructure_IgnoresText(t *testing.T) {
	a := Structure(`<html><head><title>Page 1</title></head><body><div><h1>Hello</h1><p>World</p></div></body></html>`)
	b := Structure(`<html><head><title>Page 2</title></head><body><div><h1>Hi</h1><p>Earth</p></div></body></html>`)
	if a != b {
		t.Errorf("identical structures should match, distance %d", Distance(a, b))
	}
}

func TestStructure_SingleTag(t *testing.T) {
	if Structure("<br/>") == 0 {
		t.Error("single tag should produce a non-zero fingerprint")
	}
}

func TestStartTags(t *testing.T) {
	tags := startTags(`<html><head><title>Test</title></head><body><div><p>Hello</p></div></body></html>`)
	want := []string{"html", "head", "title", "body", "div", "p"}
	if len(tags) != len(want) {
		t.Fatalf("got %d tags %v, want %d", len(tags), tags, len(want))
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tag[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestShingles(t *testing.T) {
	got := shingles([]string{"a", "b", "c", "d"}, 3, "_")
	want := []string{"a_b_c", "b_c_d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("shingle[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if s := shingles([]string{"a"}, 2, " "); s != nil {
		t.Errorf("expected nil for fewer tokens than n, got %v", s)
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0xFF, 0xFF, 0},
		{"all different", 0, ^uint64(0), 64},
		{"one bit", 0, 1, 1},
		{"two bits", 0, 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDigest(t *testing.T) {
	if Digest("a", "b") != Digest("a", "b") {
		t.Error("digest should be deterministic")
	}
	if Digest("ab", "") == Digest("a", "b") {
		t.Error("moving text between parts should change the digest")
	}
	if Digest("Kettle", "$20") == Digest("Kettle", "$25") {
		t.Error("a one-character change should change the digest")
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker()

	if changed, _ := tr.Observe("https://example.com", "d1", 0b1010); !changed {
		t.Error("first snapshot should count as changed")
	}
	if changed, _ := tr.Observe("https://example.com", "d1", 0b1010); changed {
		t.Error("repeated digest should not count as changed")
	}
	changed, dist := tr.Observe("https://example.com", "d2", 0b1010)
	if !changed {
		t.Error("new digest with an equal fingerprint should count as changed")
	}
	if dist != 0 {
		t.Errorf("distance = %d, want 0", dist)
	}
	if _, dist := tr.Observe("https://example.com", "d3", 0b1111); dist != 2 {
		t.Errorf("distance = %d, want 2", dist)
	}
	if changed, _ := tr.Observe("https://other.example", "d3", 0b1111); !changed {
		t.Error("keys should be tracked independently")
	}

	tr.Forget("https://example.com")
	if changed, _ := tr.Observe("https://example.com", "d3", 0b1111); !changed {
		t.Error("forgotten key should count as changed")
	}
}
