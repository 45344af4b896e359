package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

const (
	NameSHA256     = "sha256"
	NameSHA3_256   = "sha3-256"
	NameBlake2b256 = "blake2b-256"
)

// Hasher turns bytes into a lowercase hex digest
type Hasher interface {
	Name() string
	Sum(data []byte) string
}

type digestFunc func(data []byte) []byte

type hexHasher struct {
	name   string
	digest digestFunc
}

func (h *hexHasher) Name() string {
	return h.name
}

func (h *hexHasher) Sum(data []byte) string {
	return hex.EncodeToString(h.digest(data))
}

// SHA256 is the default hasher; digests match crypto-js SHA256(...).toString()
func SHA256() Hasher {
	return &hexHasher{name: NameSHA256, digest: func(data []byte) []byte {
		sum := sha256.Sum256(data)
		return sum[:]
	}}
}

func SHA3_256() Hasher {
	return &hexHasher{name: NameSHA3_256, digest: func(data []byte) []byte {
		sum := sha3.Sum256(data)
		return sum[:]
	}}
}

func Blake2b256() Hasher {
	return &hexHasher{name: NameBlake2b256, digest: func(data []byte) []byte {
		sum := blake2b.Sum256(data)
		return sum[:]
	}}
}

// New resolves a hasher by name. An empty name selects SHA-256.
func New(name string) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameSHA256:
		return SHA256(), nil
	case NameSHA3_256:
		return SHA3_256(), nil
	case NameBlake2b256:
		return Blake2b256(), nil
	default:
		return nil, fmt.Errorf("unsupported hasher: %s", name)
	}
}
