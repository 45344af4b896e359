package block

import (
	"testing"

	"github.com/mezonai/simplechain/hasher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genesisCanonical = `{"hash":"","height":0,"body":"First block in the chain - Genesis block","time":1530393985,"previousBlockHash":""}`

// sha256 of genesisCanonical
const genesisSHA256 = "2bb8a59ea31304d7a0ac55b1de47c03578deb381e508b865dcbcb827c3fb5640"

func TestNewBlockDefaults(t *testing.T) {
	b := NewBlock("payload")
	assert.Equal(t, "payload", b.Body)
	assert.Equal(t, uint64(0), b.Height)
	assert.Equal(t, int64(0), b.Timestamp)
	assert.Empty(t, b.Hash)
	assert.Empty(t, b.PreviousBlockHash)
}

func TestCanonicalFieldOrder(t *testing.T) {
	b := &Block{
		Hash:              "ab",
		Height:            12,
		Body:              "data",
		Timestamp:         1700000000,
		PreviousBlockHash: "cd",
	}
	assert.Equal(t,
		`{"hash":"ab","height":12,"body":"data","time":1700000000,"previousBlockHash":"cd"}`,
		string(b.Canonical()))
}

func TestCanonicalEscaping(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"short escapes", "\b\f\n\r\t", `"\b\f\n\r\t"`},
		{"other control", "\x01\x1f", `"\u0001\u001f"`},
		{"html kept literal", "<a&b>", `"<a&b>"`},
		{"unicode kept literal", "héllo ✓", `"héllo ✓"`},
		{"invalid utf-8 run collapsed", "a\xff\xfeb\xffc", "\"a\uFFFDb\uFFFDc\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Block{Body: tt.body}
			want := `{"hash":"","height":0,"body":` + tt.want + `,"time":0,"previousBlockHash":""}`
			assert.Equal(t, want, string(b.Canonical()))
		})
	}
}

func TestGenesisMatchesReferenceDigest(t *testing.T) {
	g := Genesis(hasher.SHA256())

	assert.Equal(t, GenesisHeight, g.Height)
	assert.Equal(t, GenesisTimestamp, g.Timestamp)
	assert.Equal(t, GenesisBody, g.Body)
	assert.Empty(t, g.PreviousBlockHash)
	assert.True(t, g.IsGenesis())

	unsealed := g.Clone()
	unsealed.Hash = ""
	assert.Equal(t, genesisCanonical, string(unsealed.Canonical()))
	assert.Equal(t, genesisSHA256, g.Hash)
}

func TestComputeHashDoesNotMutate(t *testing.T) {
	h := hasher.SHA256()
	b := &Block{Hash: "stored", Height: 3, Body: "x", Timestamp: 5, PreviousBlockHash: "p"}

	sum := b.ComputeHash(h)
	assert.Equal(t, "stored", b.Hash)
	assert.NotEqual(t, "stored", sum)

	// the stored hash never influences the digest
	b2 := b.Clone()
	b2.Hash = "something else"
	assert.Equal(t, sum, b2.ComputeHash(h))
}

func TestSealAndVerify(t *testing.T) {
	h := hasher.SHA256()
	b := &Block{Height: 1, Body: "A", Timestamp: 1600000000, PreviousBlockHash: genesisSHA256}
	b.Seal(h)
	require.True(t, b.Verify(h))

	b.Body = "tampered"
	assert.False(t, b.Verify(h))
}

func TestDecodeRoundTrip(t *testing.T) {
	h := hasher.SHA256()
	b := &Block{Height: 9, Body: "line1\nline2 \"quoted\" <tag>", Timestamp: 1600000123, PreviousBlockHash: "00ff"}
	b.Seal(h)

	decoded, err := Decode(b.Canonical())
	require.NoError(t, err)
	assert.Equal(t, b, decoded)
	assert.True(t, decoded.Verify(h))
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(nil)
	assert.Error(t, err)

	_, err = Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestNewBlockRoundTripsInvalidUTF8(t *testing.T) {
	h := hasher.SHA256()
	b := NewBlock("a\xffb\xe2\x82")
	assert.Equal(t, "a\uFFFDb\uFFFD", b.Body)
	b.Height = 4
	b.Timestamp = 1700000000
	b.Seal(h)

	decoded, err := Decode(b.Canonical())
	require.NoError(t, err)
	assert.Equal(t, b, decoded)
	assert.True(t, decoded.Verify(h))
}
