package storage

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alnum = regexp.MustCompile(`^[A-Za-z0-9]+$`)

func TestAllocateNameLength(t *testing.T) {
	tests := map[int]int{
		-3:  DefaultNameLength,
		0:   DefaultNameLength,
		1:   1,
		8:   8,
		64:  64,
		200: MaxNameLength,
	}
	for in, want := range tests {
		name, err := AllocateName(in)
		require.NoError(t, err)
		assert.Len(t, name, want, "length %d", in)
		assert.Regexp(t, alnum, name)
	}
}

func TestAllocateNameSpread(t *testing.T) {
	seen := make(map[string]struct{}, 2000)
	for i := 0; i < 2000; i++ {
		name, err := AllocateName(12)
		require.NoError(t, err)
		seen[name] = struct{}{}
	}
	assert.Len(t, seen, 2000)
}
