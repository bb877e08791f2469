package shared

import (
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ReadText returns the file contents as a string. Legacy sources that are
// not valid UTF-8 are decoded as ISO-8859-1; latin1 reports that fallback.
func ReadText(path string) (text string, latin1 bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	return DecodeText(b)
}

func DecodeText(b []byte) (string, bool, error) {
	if utf8.Valid(b) {
		return string(b), false, nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", true, err
	}
	return string(out), true, nil
}
