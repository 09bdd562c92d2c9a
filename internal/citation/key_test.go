package citation

import "testing"

func TestFormatParseRoundTrip(t *testing.T) {
	cases := []struct {
		fingerprint string
		index       int
	}{
		{"a1b2c3", 0},
		{"deadbe", 7},
		{"000fff", 120},
	}
	for _, tc := range cases {
		s := FormatKey(tc.fingerprint, tc.index)
		k, err := ParseKey(s)
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", s, err)
		}
		if k.Fingerprint != tc.fingerprint || k.ChunkIndex != tc.index {
			t.Fatalf("round trip mismatch: got %+v want %s:%d", k, tc.fingerprint, tc.index)
		}
	}
}

func TestParseKeyToleratesBrackets(t *testing.T) {
	k, err := ParseKey(" [a1b2c3:4] ")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if k.Fingerprint != "a1b2c3" || k.ChunkIndex != 4 {
		t.Fatalf("got %+v", k)
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "a1b2c3", "a1b2c:4", "A1B2C3:4", "a1b2c3:", "a1b2c3:x", "g1b2c3:1", "a1b2c34:1"} {
		if _, err := ParseKey(s); err == nil {
			t.Errorf("ParseKey(%q) should fail", s)
		}
	}
}

func TestExtractKeysOrderAndDuplicates(t *testing.T) {
	text := "First point [a1b2c3:0][b4e5f6:2], revisited later [a1b2c3:0]."
	keys := ExtractKeys(text)
	if len(keys) != 3 {
		t.Fatalf("want 3 keys, got %d: %v", len(keys), keys)
	}
	want := []Key{
		{"a1b2c3", 0},
		{"b4e5f6", 2},
		{"a1b2c3", 0},
	}
	for i, k := range keys {
		if k != want[i] {
			t.Errorf("key %d: got %+v want %+v", i, k, want[i])
		}
	}
}

func TestExtractKeysIgnoresNonMatching(t *testing.T) {
	text := "no citations here [note] [abc:1] [a1b2c3] [A1B2C3:0]"
	if keys := ExtractKeys(text); keys != nil {
		t.Fatalf("expected nil, got %v", keys)
	}
}

func TestContainsKey(t *testing.T) {
	k := Key{Fingerprint: "a1b2c3", ChunkIndex: 5}
	if !ContainsKey("evidence [a1b2c3:5] cited", k) {
		t.Fatal("ContainsKey false negative")
	}
	if ContainsKey("evidence a1b2c3:5 cited", k) {
		t.Fatal("unbracketed text should not match")
	}
}
