package block

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mezonai/simplechain/hasher"
	"github.com/mezonai/simplechain/jsonx"
)

const (
	GenesisBody      = "First block in the chain - Genesis block"
	GenesisHeight    = uint64(0)
	GenesisTimestamp = int64(1530393985)
)

// Canonical field names, in serialization order
const (
	FieldHash              = "hash"
	FieldHeight            = "height"
	FieldBody              = "body"
	FieldTime              = "time"
	FieldPreviousBlockHash = "previousBlockHash"
)

type Block struct {
	Hash              string `json:"hash"`
	Height            uint64 `json:"height"`
	Body              string `json:"body"`
	Timestamp         int64  `json:"time"`
	PreviousBlockHash string `json:"previousBlockHash"`
}

// NewBlock creates an unsealed block; height, time and hashes are filled in by the ledger.
// Invalid UTF-8 in body is replaced with U+FFFD, as it would be once stored.
func NewBlock(body string) *Block {
	return &Block{Body: strings.ToValidUTF8(body, "\uFFFD")}
}

// Genesis builds the sealed height-0 block
func Genesis(h hasher.Hasher) *Block {
	b := &Block{
		Height:    GenesisHeight,
		Body:      GenesisBody,
		Timestamp: GenesisTimestamp,
	}
	b.Seal(h)
	return b
}

// IsGenesis reports whether b sits at the genesis height
func (b *Block) IsGenesis() bool {
	return b.Height == GenesisHeight
}

// Canonical returns the fixed-order JSON encoding of b. This is both the stored
// value and, with Hash cleared, the hash input.
func (b *Block) Canonical() []byte {
	stream := jsonx.NewCanonicalStream()
	defer jsonx.ReturnCanonicalStream(stream)

	stream.WriteObjectStart()
	stream.WriteObjectField(FieldHash)
	writeQuoted(stream, b.Hash)
	stream.WriteMore()
	stream.WriteObjectField(FieldHeight)
	stream.WriteUint64(b.Height)
	stream.WriteMore()
	stream.WriteObjectField(FieldBody)
	writeQuoted(stream, b.Body)
	stream.WriteMore()
	stream.WriteObjectField(FieldTime)
	stream.WriteInt64(b.Timestamp)
	stream.WriteMore()
	stream.WriteObjectField(FieldPreviousBlockHash)
	writeQuoted(stream, b.PreviousBlockHash)
	stream.WriteObjectEnd()

	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out
}

// ComputeHash hashes the canonical form of b with its hash field cleared. b is not modified.
func (b *Block) ComputeHash(h hasher.Hasher) string {
	unsealed := *b
	unsealed.Hash = ""
	return h.Sum(unsealed.Canonical())
}

// Seal sets b.Hash from its current contents
func (b *Block) Seal(h hasher.Hasher) {
	b.Hash = b.ComputeHash(h)
}

// Verify reports whether the stored hash matches the contents
func (b *Block) Verify(h hasher.Hasher) bool {
	return b.Hash == b.ComputeHash(h)
}

// Clone returns an independent copy
func (b *Block) Clone() *Block {
	c := *b
	return &c
}

// Decode parses a stored block value
func Decode(data []byte) (*Block, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty block data")
	}
	var blk Block
	if err := jsonx.Unmarshal(data, &blk); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block: %w", err)
	}
	return &blk, nil
}

type rawWriter interface {
	WriteRaw(s string)
}

const hexDigits = "0123456789abcdef"

// writeQuoted emits s as a JSON string literal using the escapes
// JSON.stringify produces, so digests agree with records written by it.
func writeQuoted(w rawWriter, s string) {
	buf := make([]byte, 0, len(s)+2)
	buf = append(buf, '"')
	invalidRun := false
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			invalidRun = false
			switch c {
			case '"':
				buf = append(buf, '\\', '"')
			case '\\':
				buf = append(buf, '\\', '\\')
			case '\b':
				buf = append(buf, '\\', 'b')
			case '\f':
				buf = append(buf, '\\', 'f')
			case '\n':
				buf = append(buf, '\\', 'n')
			case '\r':
				buf = append(buf, '\\', 'r')
			case '\t':
				buf = append(buf, '\\', 't')
			default:
				if c < 0x20 {
					buf = append(buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
				} else {
					buf = append(buf, c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			// a run of invalid bytes becomes one U+FFFD, as strings.ToValidUTF8 does
			if !invalidRun {
				buf = append(buf, "\uFFFD"...)
			}
			invalidRun = true
			i++
			continue
		}
		invalidRun = false
		buf = append(buf, s[i:i+size]...)
		i += size
	}
	buf = append(buf, '"')
	w.WriteRaw(string(buf))
}
