package jsonx

import (
	"io"

	jsoniter "github.com/json-iterator/go"
)

var jsonx = jsoniter.ConfigCompatibleWithStandardLibrary

// canonical writes compact JSON without HTML escaping, the way a JavaScript
// JSON.stringify producer does.
var canonical = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: false,
}.Froze()

func Marshal(v interface{}) ([]byte, error) {
	return jsonx.Marshal(v)
}

func Unmarshal(data []byte, v interface{}) error {
	return jsonx.Unmarshal(data, v)
}

func NewDecoder(r io.Reader) *jsoniter.Decoder {
	return jsonx.NewDecoder(r)
}

func NewEncoder(w io.Writer) *jsoniter.Encoder {
	return jsonx.NewEncoder(w)
}

// NewCanonicalStream returns a stream for hand-written, fixed-order objects.
// It buffers in memory only, so writes cannot fail.
func NewCanonicalStream() *jsoniter.Stream {
	return canonical.BorrowStream(nil)
}

// ReturnCanonicalStream hands a stream obtained from NewCanonicalStream back to the pool
func ReturnCanonicalStream(stream *jsoniter.Stream) {
	canonical.ReturnStream(stream)
}
