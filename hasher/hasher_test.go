package hasher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256KnownVector(t *testing.T) {
	h := SHA256()
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", h.Sum([]byte("abc")))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", h.Sum(nil))
}

func TestSHA3KnownVector(t *testing.T) {
	h := SHA3_256()
	assert.Equal(t, "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532", h.Sum([]byte("abc")))
}

func TestAllHashersProduceLowercaseHex64(t *testing.T) {
	for _, name := range []string{NameSHA256, NameSHA3_256, NameBlake2b256} {
		t.Run(name, func(t *testing.T) {
			h, err := New(name)
			require.NoError(t, err)
			assert.Equal(t, name, h.Name())

			sum := h.Sum([]byte("simplechain"))
			assert.Len(t, sum, 64)
			assert.Regexp(t, "^[0-9a-f]{64}$", sum)
			assert.Equal(t, sum, h.Sum([]byte("simplechain")), "digest must be deterministic")
		})
	}
}

func TestNew(t *testing.T) {
	h, err := New("")
	require.NoError(t, err)
	assert.Equal(t, NameSHA256, h.Name())

	h, err = New(" SHA3-256 ")
	require.NoError(t, err)
	assert.Equal(t, NameSHA3_256, h.Name())

	_, err = New("md5")
	assert.Error(t, err)
}
