package util

import (
	"strings"
	"testing"
)

func TestFingerprintStableAcrossControlNoise(t *testing.T) {
	clean := Fingerprint("the same document body")
	noisy := Fingerprint("the same document body\x00\x01")
	if clean != noisy {
		t.Fatalf("fingerprint changed under extractor noise: %s vs %s", clean, noisy)
	}
	if len(clean) != FingerprintLen {
		t.Fatalf("fingerprint length = %d, want %d", len(clean), FingerprintLen)
	}
	for _, ch := range clean {
		if !strings.ContainsRune("0123456789abcdef", ch) {
			t.Fatalf("fingerprint contains non-hex rune %q", ch)
		}
	}
}

func TestFingerprintDiffersForDifferentText(t *testing.T) {
	if Fingerprint("document one") == Fingerprint("document two") {
		t.Fatal("distinct texts produced the same fingerprint")
	}
}

func TestSHA256HexFromReader(t *testing.T) {
	body := "some pdf bytes"
	got, err := SHA256HexFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if got != SHA256Hex([]byte(body)) {
		t.Fatalf("reader hash %s disagrees with byte hash", got)
	}
}
