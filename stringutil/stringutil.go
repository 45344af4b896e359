package stringutil

import "fmt"

const ShortenLogLength = 16

// ShortenHash keeps the head and tail of a hex digest for log lines
func ShortenHash(hash string) string {
	indexCut := ShortenLogLength / 2
	if len(hash) <= ShortenLogLength {
		return hash
	}
	return fmt.Sprintf("%s...%s", hash[:indexCut], hash[len(hash)-indexCut:])
}
