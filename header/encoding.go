package header

import (
	"io"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding identifies the text encoding of a raw file header. The zero
// value EncAuto means "not chosen yet": encoders substitute their dialect's
// convention for it, and parsed headers always carry a concrete value.
type Encoding uint8

const (
	EncAuto Encoding = iota
	EncUTF8
	EncUTF16LE
	EncWindows1252
)

var encodingNames = [...]string{
	EncAuto:        "auto",
	EncUTF8:        "utf-8",
	EncUTF16LE:     "utf-16-le",
	EncWindows1252: "windows-1252",
}

func (e Encoding) String() string {
	if int(e) < len(encodingNames) {
		return encodingNames[e]
	}
	return "unknown"
}

// DetectEncoding sniffs the header encoding from the first bytes of a raw
// file. LTspice writes UTF-16-LE, so the second byte of the leading "Title"
// key is NUL; everything else is treated as UTF-8 until a line fails to
// validate, at which point the parser falls back to Windows-1252.
func DetectEncoding(data []byte) Encoding {
	if len(data) >= 2 {
		if data[0] == 0xFF && data[1] == 0xFE {
			return EncUTF16LE
		}
		if data[1] == 0x00 {
			return EncUTF16LE
		}
	}
	return EncUTF8
}

// decodeUTF16 converts UTF-16-LE bytes to UTF-8.
func decodeUTF16(b []byte) ([]byte, error) {
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
}

// encodeUTF16 converts UTF-8 text to UTF-16-LE bytes without a BOM.
func encodeUTF16(b []byte) ([]byte, error) {
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes(b)
}

// decodeCP1252 converts Windows-1252 bytes to UTF-8. Every byte sequence
// decodes, so this is the terminal fallback for headers with high bytes
// that are not valid UTF-8.
func decodeCP1252(b []byte) ([]byte, error) {
	return charmap.Windows1252.NewDecoder().Bytes(b)
}

// DecodeReader wraps r so that it yields UTF-8 regardless of the header
// encoding. Streaming readers use it to tokenize text bodies without
// buffering the whole body.
func DecodeReader(r io.Reader, enc Encoding) io.Reader {
	switch enc {
	case EncUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Reader(r)
	case EncWindows1252:
		return charmap.Windows1252.NewDecoder().Reader(r)
	default:
		return r
	}
}

// encodeCP1252 converts UTF-8 text back to Windows-1252.
func encodeCP1252(b []byte) ([]byte, error) {
	return charmap.Windows1252.NewEncoder().Bytes(b)
}
