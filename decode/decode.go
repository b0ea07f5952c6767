// Package decode implements the ByteDecoder collaborator that sits in
// front of the core: it yields characters with encoding
// auto-detection handled behind it. Because it sits at the very edge
// of the streaming pipeline, it also owns CR/CRLF to LF line-end
// normalization, which happens upstream of tokenization.
//
// Only UTF-8 and UTF-16 (with a byte-order mark) are auto-detected
// here; anything else is out of scope for this package. A deployment
// that needs other encodings plugs in a ByteDecoder backed by
// golang.org/x/text/encoding.
package decode

import (
	"errors"
	"unicode/utf16"
	"unicode/utf8"
)

// ByteDecoder converts raw incoming byte chunks into well-formed UTF-8
// text, buffering any partial multi-byte sequence that spans a chunk
// boundary until the next Decode call (or failing it at Close if one
// never arrives).
type ByteDecoder interface {
	// Decode consumes buf (which may end mid-codepoint) and returns the
	// complete runes of text it could produce. The returned slice is
	// only valid until the next call.
	Decode(buf []byte) ([]byte, error)
	// Close flushes any buffered trailing bytes, failing if they do
	// not form a complete character.
	Close() ([]byte, error)
}

// ErrTruncatedSequence is returned by Close when trailing bytes remain
// that do not form a complete character.
var ErrTruncatedSequence = errors.New("decode: truncated multi-byte sequence at end of input")

// ErrInvalidUTF8 is returned when a chunk contains bytes that cannot
// form valid UTF-8 even after waiting for more input.
var ErrInvalidUTF8 = errors.New("decode: invalid UTF-8")

// UTF8Decoder is a ByteDecoder for UTF-8 input (the common case, and
// the only encoding this package fully supports end to end). It BOM
// sniffs UTF-8/UTF-16 byte order marks on the first call and decodes
// UTF-16 input by re-encoding to UTF-8, but it does not attempt to
// honor an `<?xml … encoding="…"?>` override: callers that need
// encoding sniffing from the declaration itself must peek the first
// bytes before constructing the decoder.
type UTF8Decoder struct {
	pending []byte
	mode    int // 0 = unsniffed, 1 = utf8, 2 = utf16le, 3 = utf16be
	sawCR   bool
	out     []byte
}

const (
	modeUnsniffed = iota
	modeUTF8
	modeUTF16LE
	modeUTF16BE
)

// NewUTF8Decoder returns a decoder that BOM-sniffs its first input.
func NewUTF8Decoder() *UTF8Decoder {
	return &UTF8Decoder{mode: modeUnsniffed}
}

func (d *UTF8Decoder) sniff(buf []byte) []byte {
	if len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		d.mode = modeUTF8
		return buf[3:]
	}
	if len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE {
		d.mode = modeUTF16LE
		return buf[2:]
	}
	if len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF {
		d.mode = modeUTF16BE
		return buf[2:]
	}
	d.mode = modeUTF8
	return buf
}

func (d *UTF8Decoder) Decode(buf []byte) ([]byte, error) {
	if d.mode == modeUnsniffed {
		buf = d.sniff(buf)
	}
	all := append(d.pending, buf...)
	d.pending = nil

	var text []byte
	var err error
	switch d.mode {
	case modeUTF16LE, modeUTF16BE:
		text, d.pending, err = decodeUTF16(all, d.mode == modeUTF16BE)
	default:
		text, d.pending, err = decodeUTF8(all)
	}
	if err != nil {
		return nil, err
	}
	return normalizeNewlines(text, &d.sawCR), nil
}

func (d *UTF8Decoder) Close() ([]byte, error) {
	if len(d.pending) > 0 {
		return nil, ErrTruncatedSequence
	}
	return nil, nil
}

// decodeUTF8 returns the longest valid-UTF8 prefix of buf and the
// trailing bytes that might be the start of a truncated rune.
func decodeUTF8(buf []byte) (complete, rest []byte, err error) {
	i := 0
	for i < len(buf) {
		if buf[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(buf[i:])
		if r == utf8.RuneError && size <= 1 {
			// Either genuinely invalid, or a valid sequence truncated
			// at the end of the buffer: only tolerate the latter.
			if couldBeTruncated(buf[i:]) {
				return buf[:i], buf[i:], nil
			}
			return nil, nil, ErrInvalidUTF8
		}
		i += size
	}
	return buf, nil, nil
}

func couldBeTruncated(tail []byte) bool {
	if len(tail) == 0 || len(tail) >= 4 {
		return false
	}
	b := tail[0]
	var want int
	switch {
	case b&0xE0 == 0xC0:
		want = 2
	case b&0xF0 == 0xE0:
		want = 3
	case b&0xF8 == 0xF0:
		want = 4
	default:
		return false
	}
	return len(tail) < want
}

func decodeUTF16(buf []byte, big bool) (complete, rest []byte, err error) {
	n := len(buf) - len(buf)%2
	units := make([]uint16, 0, n/2)
	for i := 0; i < n; i += 2 {
		if big {
			units = append(units, uint16(buf[i])<<8|uint16(buf[i+1]))
		} else {
			units = append(units, uint16(buf[i+1])<<8|uint16(buf[i]))
		}
	}
	// A trailing high surrogate with no following low surrogate must
	// wait for more input.
	if len(units) > 0 {
		last := units[len(units)-1]
		if last >= 0xD800 && last <= 0xDBFF {
			units = units[:len(units)-1]
			n -= 2
		}
	}
	runes := utf16.Decode(units)
	return []byte(string(runes)), buf[n:], nil
}

// normalizeNewlines rewrites CR and CRLF to LF, per the XML 1.0/1.1
// end-of-line handling rules, carrying a trailing-CR flag across calls
// so a CRLF split across a chunk boundary is not double-counted.
func normalizeNewlines(text []byte, sawCR *bool) []byte {
	out := make([]byte, 0, len(text))
	start := 0
	if *sawCR && len(text) > 0 && text[0] == '\n' {
		start = 1
	}
	*sawCR = false
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '\r':
			out = append(out, text[start:i]...)
			out = append(out, '\n')
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			} else if i+1 == len(text) {
				*sawCR = true
			}
			start = i + 1
		}
	}
	out = append(out, text[start:]...)
	return out
}
