package token

import "github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"

func (t *Tokenizer) stepTagName(eof bool) (bool, error) {
	name, n, done := scanNameThenDelim(t.buf, eof)
	if !done {
		return false, nil
	}
	if !isValidName(name) {
		return false, t.fail(xerr.CodeMalformedDocument, "invalid element name %q", name)
	}
	tok := Get()
	tok.Kind = ElementStartOpen
	tok.Name = name
	consumed := t.buf[:n]
	err := t.emit(tok)
	Put(tok)
	if err != nil {
		return false, err
	}
	t.consume(n)
	t.advanceLocator(consumed)
	t.rootSeen = true
	t.state = stateInTag
	return true, nil
}

func (t *Tokenizer) stepEndTagName(eof bool) (bool, error) {
	i := 0
	for i < len(t.buf) && !isSpace(t.buf[i]) && t.buf[i] != '>' {
		i++
	}
	if i == len(t.buf) {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated end tag")
		}
		return false, nil
	}
	name := string(t.buf[:i])
	if !isValidName(name) {
		return false, t.fail(xerr.CodeMalformedDocument, "invalid element name %q in end tag", name)
	}
	// skip trailing whitespace then require '>'
	j := i
	for j < len(t.buf) && isSpace(t.buf[j]) {
		j++
	}
	if j == len(t.buf) {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated end tag")
		}
		return false, nil
	}
	if t.buf[j] != '>' {
		return false, t.fail(xerr.CodeMalformedDocument, "expected '>' to close end tag %q", name)
	}
	tok := Get()
	tok.Kind = ElementEnd
	tok.Name = name
	consumed := t.buf[:j+1]
	err := t.emit(tok)
	Put(tok)
	if err != nil {
		return false, err
	}
	t.consume(j + 1)
	t.advanceLocator(consumed)
	t.state = stateContent
	return true, nil
}

func (t *Tokenizer) stepInTag(eof bool) (bool, error) {
	i := 0
	for i < len(t.buf) && isSpace(t.buf[i]) {
		i++
	}
	if i > 0 {
		if i == len(t.buf) {
			if !eof {
				return false, nil
			}
		}
		consumed := t.buf[:i]
		t.consume(i)
		t.advanceLocator(consumed)
		if len(t.buf) == 0 {
			return i > 0, nil
		}
	}
	if len(t.buf) == 0 {
		return false, nil
	}
	switch t.buf[0] {
	case '/':
		if len(t.buf) < 2 {
			if eof {
				return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated start tag")
			}
			return false, nil
		}
		if t.buf[1] != '>' {
			return false, t.fail(xerr.CodeMalformedDocument, "expected '/>' to self-close tag")
		}
		tok := Get()
		tok.Kind = ElementStartCloseEmpty
		consumed := t.buf[:2]
		err := t.emit(tok)
		Put(tok)
		if err != nil {
			return false, err
		}
		t.consume(2)
		t.advanceLocator(consumed)
		t.state = stateContent
		return true, nil
	case '>':
		tok := Get()
		tok.Kind = ElementStartClose
		consumed := t.buf[:1]
		err := t.emit(tok)
		Put(tok)
		if err != nil {
			return false, err
		}
		t.consume(1)
		t.advanceLocator(consumed)
		t.state = stateContent
		return true, nil
	default:
		t.state = stateAttrName
		return true, nil
	}
}

func (t *Tokenizer) stepAttrName(eof bool) (bool, error) {
	i := 0
	for i < len(t.buf) && !isSpace(t.buf[i]) && t.buf[i] != '=' && t.buf[i] != '>' && t.buf[i] != '/' {
		i++
	}
	if i == len(t.buf) {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated attribute")
		}
		return false, nil
	}
	name := string(t.buf[:i])
	if !isValidName(name) {
		return false, t.fail(xerr.CodeMalformedDocument, "invalid attribute name %q", name)
	}
	t.attrName = name
	tok := Get()
	tok.Kind = AttributeName
	tok.Name = name
	consumed := t.buf[:i]
	err := t.emit(tok)
	Put(tok)
	if err != nil {
		return false, err
	}
	t.consume(i)
	t.advanceLocator(consumed)
	t.state = stateAfterAttrName
	return true, nil
}

func (t *Tokenizer) stepAfterAttrName(eof bool) (bool, error) {
	i := 0
	for i < len(t.buf) && isSpace(t.buf[i]) {
		i++
	}
	if i == len(t.buf) {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated attribute")
		}
		return false, nil
	}
	if t.buf[i] != '=' {
		return false, t.fail(xerr.CodeMalformedDocument, "expected '=' after attribute name %q", t.attrName)
	}
	i++
	for i < len(t.buf) && isSpace(t.buf[i]) {
		i++
	}
	if i == len(t.buf) {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated attribute")
		}
		return false, nil
	}
	if t.buf[i] != '"' && t.buf[i] != '\'' {
		return false, t.fail(xerr.CodeMalformedDocument, "expected quoted value for attribute %q", t.attrName)
	}
	t.attrQuote = t.buf[i]
	consumed := t.buf[:i+1]
	t.consume(i + 1)
	t.advanceLocator(consumed)
	t.state = stateAttrValue
	return true, nil
}

func (t *Tokenizer) stepAttrValue(eof bool) (bool, error) {
	idx := indexByteFrom(t.buf, t.attrQuote, 0)
	if idx < 0 {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated attribute value for %q", t.attrName)
		}
		return false, nil
	}
	raw := t.buf[:idx]
	for _, c := range raw {
		if c == '<' {
			return false, t.fail(xerr.CodeMalformedDocument, "'<' is not allowed in attribute value")
		}
	}
	value, err := expandAttrValueRefs(string(raw))
	if err != nil {
		return false, t.fail(xerr.CodeMalformedEntity, "%s", err.Error())
	}
	tok := Get()
	tok.Kind = AttributeValue
	tok.Name = t.attrName
	tok.Text = value
	consumed := t.buf[:idx+1]
	emitErr := t.emit(tok)
	Put(tok)
	if emitErr != nil {
		return false, emitErr
	}
	t.consume(idx + 1)
	t.advanceLocator(consumed)
	t.state = stateInTag
	return true, nil
}

// expandAttrValueRefs performs the tokenizer-level entity expansion
// step: numeric character references and the five predefined entities
// are substituted inline; named general entity references are left as
// literal "&name;" text for the content parser to expand, since that
// step needs the DTD's entity table, which the tokenizer does not
// have access to.
func expandAttrValueRefs(raw string) (string, error) {
	if indexByte(raw, '&') < 0 {
		return raw, nil
	}
	var out []byte
	i := 0
	for i < len(raw) {
		c := raw[i]
		if c == '&' {
			end := indexByteFromString(raw, ';', i+1)
			if end < 0 {
				return "", errUnterminatedRef
			}
			name := raw[i+1 : end]
			if len(name) > 0 && name[0] == '#' {
				r, err := decodeCharRef(name)
				if err != nil {
					return "", err
				}
				out = append(out, []byte(string(r))...)
			} else if repl, ok := predefinedEntity(name); ok {
				out = append(out, repl...)
			} else {
				out = append(out, raw[i:end+1]...)
			}
			i = end + 1
			continue
		}
		out = append(out, c)
		i++
	}
	return string(out), nil
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

func indexByteFromString(s string, c byte, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

var errUnterminatedRef = xerr.Errorf(xerr.Loc{}, xerr.CodeMalformedEntity, "unterminated entity reference in attribute value")

// scanNameThenDelim scans a Name production followed by whitespace,
// '/', or '>', returning the name and the byte count consumed for the
// name itself (not including the delimiter, which the caller re-scans
// in stateInTag).
func scanNameThenDelim(buf []byte, eof bool) (name string, n int, done bool) {
	i := 0
	for i < len(buf) && !isSpace(buf[i]) && buf[i] != '/' && buf[i] != '>' {
		i++
	}
	if i == len(buf) {
		return "", 0, false
	}
	return string(buf[:i]), i, true
}
