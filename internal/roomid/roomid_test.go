package roomid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate_Format(t *testing.T) {
	req := require.New(t)

	for i := 0; i < 100; i++ {
		id := Generate()
		req.Len(id, Length)
		req.True(Valid(id), "generated id %q should be valid", id)
		req.Equal(id, Normalize(id))
	}
}

func TestGenerate_SameInstantStillDistinct(t *testing.T) {
	req := require.New(t)
	seen := make(map[string]struct{})

	// When many ids are generated back to back
	for i := 0; i < 200; i++ {
		seen[Generate()] = struct{}{}
	}

	// Then collisions are rare enough that almost all are distinct
	req.GreaterOrEqual(len(seen), 198)
}

func TestNormalize(t *testing.T) {
	req := require.New(t)
	req.Equal("ABC123", Normalize("  abc123 "))
	req.Equal("ZZZZZZ", Normalize("zzzzzz"))
}

func TestValid(t *testing.T) {
	req := require.New(t)
	req.True(Valid("ABC123"))
	req.False(Valid("abc123"))
	req.False(Valid("ABC12"))
	req.False(Valid("ABC12-"))
	req.False(Valid(""))
}
