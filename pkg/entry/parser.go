// Package entry tokenizes the line oriented key/value format shared by
// Desktop Entry files, .directory files and mimeapps.list.
//
// The tokenizer makes one forward pass over a byte buffer and pushes
// section, key and value events to a Visitor. Slices handed to the visitor
// alias the buffer and are only valid for the duration of the callback;
// visitors copy out anything they keep.
package entry

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/runes"

	"xdgdesk/internal/log"
)

// Visitor receives tokenizer events in file order.
//
// Section reports whether the section is recognized. Key/value events that
// follow an unrecognized section are still delivered; the visitor is expected
// to ignore them until the next section it recognizes.
type Visitor interface {
	Section(name []byte) bool
	Key(name []byte)
	Value(value []byte)
}

// Parse tokenizes buf and pushes events to v.
//
// Leading blanks are trimmed from every line. Blank lines and lines starting
// with '#' are skipped. "[name]" opens a section; text after the closing
// bracket is ignored, and a header missing its ']' names the section up to
// the end of the line. Any other line is split at its first '=' into a key
// and a value running to the end of the line. Lines without '=' are dropped.
// A value cut off by the end of the buffer is delivered as is.
func Parse(buf []byte, v Visitor) {
	i := 0
	for i < len(buf) {
		for i < len(buf) && isBlank(buf[i]) {
			i++
		}
		if i == len(buf) {
			return
		}

		end := bytes.IndexByte(buf[i:], '\n')
		if end < 0 {
			end = len(buf)
		} else {
			end += i
		}
		line := buf[i:end]
		i = end + 1

		switch line[0] {
		case '#':
			continue
		case '[':
			name := line[1:]
			if rb := bytes.IndexByte(name, ']'); rb >= 0 {
				name = name[:rb]
			} else {
				name = trimCR(name)
			}
			if !v.Section(name) {
				log.LogWithFields(log.F("section", Decode(name))).Debug("unrecognized section")
			}
		default:
			eq := bytes.IndexByte(line, '=')
			if eq < 0 {
				log.Debugf("dropping line without '=': %q", line)
				continue
			}
			v.Key(line[:eq])
			v.Value(trimCR(line[eq+1:]))
		}
	}
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

// Decode copies b into a string, replacing invalid UTF-8 sequences with
// U+FFFD.
func Decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return runes.ReplaceIllFormed().String(string(b))
}
