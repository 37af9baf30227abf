// Package id generates the short external ids (sid) of number requests and
// allocations, e.g. "req_4fT9kQ2LmZx0".
package id

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	DefaultLength = 12

	// rejectAbove keeps the byte-to-symbol mapping uniform: 248 is the
	// largest multiple of 62 that fits in a byte.
	rejectAbove = 256 - 256%len(alphabet)
)

const (
	PrefixNumberRequest = "req"
	PrefixAllocation    = "alc"
)

// Generate returns a random base62 string. Non-positive lengths use
// DefaultLength.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// GenerateWithPrefix returns "<prefix>_<random>".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	s, err := Generate(length)
	if err != nil {
		return "", err
	}
	return prefix + "_" + s, nil
}

// ValidatePrefix checks that sid is "<expectedPrefix>_<base62>".
func ValidatePrefix(sid, expectedPrefix string) error {
	prefix, body, ok := strings.Cut(sid, "_")
	switch {
	case !ok || body == "":
		return fmt.Errorf("malformed id %q", sid)
	case prefix != expectedPrefix:
		return fmt.Errorf("id %q: expected prefix %s", sid, expectedPrefix)
	}
	if i := strings.IndexFunc(body, func(r rune) bool { return !strings.ContainsRune(alphabet, r) }); i >= 0 {
		return fmt.Errorf("id %q: invalid character at %d", sid, len(prefix)+1+i)
	}
	return nil
}

func NewNumberRequestID() (string, error) {
	return GenerateWithPrefix(PrefixNumberRequest, DefaultLength)
}

func NewAllocationID() (string, error) {
	return GenerateWithPrefix(PrefixAllocation, DefaultLength)
}
