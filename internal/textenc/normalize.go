// Package textenc decodes disclosure text payloads into UTF-8 and cleans
// tabular field values. Source files arrive in a mix of encodings, so
// decoding tries a fixed candidate order and never fails.
package textenc

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding labels reported by Decode, for logging.
const (
	EncodingUTF16LE  = "utf-16le"
	EncodingUTF16BE  = "utf-16be"
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
	EncodingLossy    = "utf-8-lossy"
)

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// Decode converts raw bytes to UTF-8 text, trying candidates in priority
// order: UTF-16 by BOM, valid UTF-8, Shift_JIS, then a permissive UTF-8
// pass that substitutes replacement runes. It never fails.
func Decode(raw []byte) (string, string) {
	if len(raw) == 0 {
		return "", EncodingUTF8
	}

	if bytes.HasPrefix(raw, bomUTF16LE) {
		if text, err := decodeWith(xunicode.UTF16(xunicode.LittleEndian, xunicode.UseBOM).NewDecoder(), raw); err == nil {
			return text, EncodingUTF16LE
		}
	}
	if bytes.HasPrefix(raw, bomUTF16BE) {
		if text, err := decodeWith(xunicode.UTF16(xunicode.BigEndian, xunicode.UseBOM).NewDecoder(), raw); err == nil {
			return text, EncodingUTF16BE
		}
	}

	if utf8.Valid(raw) {
		return string(bytes.TrimPrefix(raw, bomUTF8)), EncodingUTF8
	}

	if text, err := decodeWith(japanese.ShiftJIS.NewDecoder(), raw); err == nil {
		return text, EncodingShiftJIS
	}

	return strings.ToValidUTF8(string(raw), string(utf8.RuneError)), EncodingLossy
}

func decodeWith(dec *encoding.Decoder, raw []byte) (string, error) {
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Normalize decodes raw bytes and splits them into lines. Line endings are
// unified to \n and a trailing newline does not produce an empty final line.
// Already-normalized input passes through unchanged.
func Normalize(raw []byte) []string {
	text, _ := Decode(raw)
	if text == "" {
		return nil
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}

	return strings.Split(text, "\n")
}

// CleanField strips control characters and collapses runs of whitespace to a
// single space, keeping line breaks inside multi-line values. Applying it
// twice yields the same result as applying it once.
func CleanField(text string) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, cleanLine(line))
	}

	// Blank edge lines carry no value; interior breaks stay.
	start, end := 0, len(cleaned)
	for start < end && cleaned[start] == "" {
		start++
	}
	for end > start && cleaned[end-1] == "" {
		end--
	}

	return strings.Join(cleaned[start:end], "\n")
}

func cleanLine(line string) string {
	var b strings.Builder
	b.Grow(len(line))

	pendingSpace := false
	for _, r := range line {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsControl(r), r == '\uFEFF':
			// dropped
		default:
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}

	return b.String()
}
