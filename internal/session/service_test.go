package session

import (
	"strings"
	"testing"
)

func TestGenerateJoinCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := generateJoinCode()
		if err != nil {
			t.Fatalf("generateJoinCode failed: %v", err)
		}
		if len(code) != joinCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), joinCodeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(joinCodeAlphabet, c) {
				t.Fatalf("code %q contains %q, not in alphabet", code, c)
			}
		}
		seen[code] = true
	}
	// 100 draws from a 31^6 space colliding down to a handful would
	// mean the generator is broken.
	if len(seen) < 95 {
		t.Errorf("only %d distinct codes out of 100", len(seen))
	}
}

func TestJoinCodeAlphabetOmitsAmbiguousCharacters(t *testing.T) {
	for _, c := range "0O1IL" {
		if strings.ContainsRune(joinCodeAlphabet, c) {
			t.Errorf("alphabet contains ambiguous character %q", c)
		}
	}
}
