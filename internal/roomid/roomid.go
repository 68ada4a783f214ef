// Package roomid produces the short tokens used to identify rooms.
package roomid

import (
	"strings"

	"github.com/google/uuid"
)

// Length is the fixed number of characters in a room identifier.
const Length = 6

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generator returns a candidate room identifier. Uniqueness is the caller's
// concern; see Generate.
type Generator func() string

// Generate builds a 6 character upper-case token from a UUIDv7. The first two
// characters come from the millisecond timestamp and the last four from the
// random section, so two calls within the same millisecond still differ with
// high probability.
func Generate() string {
	u, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4.
		u = uuid.New()
	}

	var ms uint64
	for _, b := range u[:6] {
		ms = ms<<8 | uint64(b)
	}

	var sb strings.Builder
	sb.Grow(Length)
	sb.WriteByte(alphabet[(ms/uint64(len(alphabet)))%uint64(len(alphabet))])
	sb.WriteByte(alphabet[ms%uint64(len(alphabet))])

	// bytes 9..15 are unconstrained random bits in both v4 and v7
	var r uint64
	for _, b := range u[9:16] {
		r = r<<8 | uint64(b)
	}
	for i := 2; i < Length; i++ {
		sb.WriteByte(alphabet[r%uint64(len(alphabet))])
		r /= uint64(len(alphabet))
	}
	return sb.String()
}

// Normalize returns the canonical form of a user-supplied identifier.
func Normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Valid reports whether id is a well-formed canonical identifier.
func Valid(id string) bool {
	if len(id) != Length {
		return false
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return false
		}
	}
	return true
}
