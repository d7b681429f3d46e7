package localfile

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Encoding is a candidate character encoding for a downloaded file.
type Encoding struct {
	Name string
	enc  encoding.Encoding // nil means UTF-8
}

var (
	UTF8     = Encoding{Name: "utf-8"}
	ShiftJIS = Encoding{Name: "shift-jis", enc: japanese.ShiftJIS}
	Big5     = Encoding{Name: "big5", enc: traditionalchinese.Big5}
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decode converts data to UTF-8 text. A candidate succeeds when it maps
// every byte to a character; x/text decoders substitute U+FFFD for invalid
// input, so a replacement rune marks failure.
func (e Encoding) decode(data []byte) (string, bool) {
	if e.enc == nil {
		if !utf8.Valid(data) {
			return "", false
		}
		return string(bytes.TrimPrefix(data, utf8BOM)), true
	}
	out, err := e.enc.NewDecoder().Bytes(data)
	if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// Decode tries each candidate in order and returns the text produced by the
// first clean decode together with the encoding that produced it.
func Decode(data []byte, candidates []Encoding) (string, Encoding, error) {
	if len(candidates) == 0 {
		candidates = []Encoding{UTF8}
	}
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if text, ok := c.decode(data); ok {
			return text, c, nil
		}
		names = append(names, c.Name)
	}
	return "", Encoding{}, fmt.Errorf("%w (tried %s)", ErrUndecodable, strings.Join(names, ", "))
}
