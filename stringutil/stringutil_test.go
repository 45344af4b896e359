package stringutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortenHash(t *testing.T) {
	assert.Equal(t, "", ShortenHash(""))
	assert.Equal(t, "abcdef", ShortenHash("abcdef"))
	assert.Equal(t, "2bb8a59e...c3fb5640",
		ShortenHash("2bb8a59ea31304d7a0ac55b1de47c03578deb381e508b865dcbcb827c3fb5640"))
}
