package store

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// newRandomID returns prefix-<suffix> where suffix is base32 (lowercase, no padding).
// Item ids use 6 chars (30 bits, unique within a note); note ids use 8 chars (40 bits).
func newRandomID(prefix string) (string, error) {
	n := 5
	if prefix == "li" {
		n = 4
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	suffix := strings.ToLower(enc.EncodeToString(b))
	if prefix == "li" {
		suffix = suffix[:6]
	}
	return prefix + "-" + suffix, nil
}

func NewNoteID() (string, error) { return newRandomID("note") }

func NewItemID() (string, error) { return newRandomID("li") }

// IsNoteID reports whether s looks like a note id: "note-" followed by lowercase
// letters and digits.
func IsNoteID(s string) bool {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "note-")
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
