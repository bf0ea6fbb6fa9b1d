// Package codec registers the JSON codec used on the wire. It replaces
// the default Kratos JSON codec so 64-bit fact values decode as
// json.Number instead of float64 and survive the round-trip intact.
package codec

import (
	"bytes"
	"encoding/json"

	"github.com/go-kratos/kratos/v2/encoding"
)

// Name is the codec name registered with the Kratos encoding registry.
const Name = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Encode appends a newline; trim it for clean wire payloads.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func (jsonCodec) Name() string { return Name }
