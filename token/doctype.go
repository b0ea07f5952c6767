package token

import "github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"

// The tokenizer treats the internal DTD subset as an opaque, fully
// buffered span of text (captured between '[' and the first following
// ']'), handed to the dtd package as a single DoctypeStart.Internal
// blob that it re-tokenizes with its own declaration lexer, without
// requiring this tokenizer to track markup-declaration structure
// itself. A ']' inside a comment or quoted literal of the subset is
// not specially handled: the first ']' is taken as the subset's end.
func (t *Tokenizer) stepDoctype(eof bool) (bool, error) {
	end := indexOf(t.buf, ">")
	bracket := indexOf(t.buf, "[")
	if bracket >= 0 && (end < 0 || bracket < end) {
		head := t.buf[:bracket]
		name, pub, sys, ok := parseDoctypeHead(head)
		if !ok {
			if eof {
				return false, t.fail(xerr.CodeMalformedDocument, "malformed DOCTYPE declaration")
			}
			return false, nil
		}
		t.pendingName = name
		t.doctypeDepth = 1
		consumed := t.buf[:bracket+1]
		t.consume(bracket + 1)
		t.advanceLocator(consumed)
		t.pendingDTDPublic, t.pendingDTDSystem = pub, sys
		t.state = stateDoctypeSubset
		return true, nil
	}
	if end < 0 {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated DOCTYPE declaration")
		}
		return false, nil
	}
	head := t.buf[:end]
	name, pub, sys, ok := parseDoctypeHead(head)
	if !ok {
		return false, t.fail(xerr.CodeMalformedDocument, "malformed DOCTYPE declaration")
	}
	if err := t.emitDoctype(name, pub, sys, ""); err != nil {
		return false, err
	}
	consumed := t.buf[:end+1]
	t.consume(end + 1)
	t.advanceLocator(consumed)
	t.state = stateProlog
	return true, nil
}

func (t *Tokenizer) stepDoctypeSubset(eof bool) (bool, error) {
	idx := indexOf(t.buf, "]")
	if idx < 0 {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated internal DTD subset")
		}
		return false, nil
	}
	// require the ']' to be followed (ignoring whitespace) by '>'
	j := idx + 1
	for j < len(t.buf) && isSpace(t.buf[j]) {
		j++
	}
	if j == len(t.buf) {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated internal DTD subset")
		}
		return false, nil
	}
	if t.buf[j] != '>' {
		return false, t.fail(xerr.CodeMalformedDocument, "expected '>' to close DOCTYPE after internal subset")
	}
	internal := string(t.buf[:idx])
	if err := t.emitDoctype(t.pendingName, t.pendingDTDPublic, t.pendingDTDSystem, internal); err != nil {
		return false, err
	}
	consumed := t.buf[:j+1]
	t.consume(j + 1)
	t.advanceLocator(consumed)
	t.state = stateProlog
	return true, nil
}

func (t *Tokenizer) emitDoctype(name, pub, sys, internal string) error {
	start := Get()
	start.Kind = DoctypeStart
	start.Name = name
	start.PublicID = pub
	start.SystemID = sys
	start.Internal = internal
	if err := t.emit(start); err != nil {
		Put(start)
		return err
	}
	Put(start)

	end := Get()
	end.Kind = DoctypeEnd
	end.Name = name
	err := t.emit(end)
	Put(end)
	return err
}

// parseDoctypeHead parses "Name (SYSTEM "sysid" | PUBLIC "pubid" "sysid")?"
// from buf, which the caller guarantees contains no '[' and is
// terminated by the buffer boundary (either '>' or '[').
func parseDoctypeHead(buf []byte) (name, pub, sys string, ok bool) {
	s := string(buf)
	s = trimLeadingWS(s)
	i := 0
	for i < len(s) && !isSpace(s[i]) {
		i++
	}
	name = s[:i]
	if !isValidName(name) {
		return "", "", "", false
	}
	rest := trimLeadingWS(s[i:])
	if rest == "" {
		return name, "", "", true
	}
	switch {
	case hasPrefixFold(rest, "SYSTEM"):
		rest = trimLeadingWS(rest[len("SYSTEM"):])
		sys, ok = scanQuoted(rest)
		return name, "", sys, ok
	case hasPrefixFold(rest, "PUBLIC"):
		rest = trimLeadingWS(rest[len("PUBLIC"):])
		var rem string
		pub, rem, ok = scanQuotedRest(rest)
		if !ok {
			return "", "", "", false
		}
		rem = trimLeadingWS(rem)
		sys, ok = scanQuoted(rem)
		return name, pub, sys, ok
	default:
		return "", "", "", false
	}
}

func trimLeadingWS(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}

func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return s[:len(prefix)] == prefix
}

func scanQuoted(s string) (string, bool) {
	v, _, ok := scanQuotedRest(s)
	return v, ok
}

func scanQuotedRest(s string) (val, rest string, ok bool) {
	if s == "" || (s[0] != '"' && s[0] != '\'') {
		return "", s, false
	}
	q := s[0]
	idx := indexByteFromString(s, q, 1)
	if idx < 0 {
		return "", s, false
	}
	return s[1:idx], s[idx+1:], true
}
