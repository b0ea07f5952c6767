package token

import (
	"strconv"
	"strings"

	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/debug"
	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"
	"github.com/cpkb-bluezoo/gonzalez-sub009/sax"
)

// Consumer receives tokens as the Tokenizer produces them. The content
// parser (package parser) is the production Consumer; tests may supply
// their own to record the raw token stream.
type Consumer interface {
	Token(tok *Token) error
}

// lexState is the tokenizer's current position in the state trie.
// Each value corresponds to one trie state; the Tokenizer.step method
// is the table-lookup that dispatches on it.
type lexState int

const (
	stateProlog lexState = iota
	stateContent
	stateMarkupStart // just saw '<'
	stateBangStart   // just saw '<!'
	stateTagName
	stateEndTagName
	stateInTag // scanning attributes, pre-name/in-name/pre-eq/in-value
	stateAttrName
	stateAfterAttrName
	stateAttrValue
	stateComment
	stateCDATA
	statePITarget
	statePIData
	stateDoctype
	stateDoctypeSubset
	stateDone
)

// Tokenizer is the push tokenizer. Feed it byte buffers with Receive
// in any chunking whatsoever (down to one byte at a time) and it
// emits tokens to its Consumer before Receive returns, retaining any
// partially matched construct as internal state.
type Tokenizer struct {
	consumer Consumer
	locator  *sax.Locator
	xml11    bool
	fragment bool

	state lexState
	buf   []byte // unconsumed bytes, logically prepended to the next Receive
	atPos int64  // running total of bytes consumed before buf[0]

	sawXMLDecl   bool
	rootSeen     bool
	attrQuote    byte
	attrName     string
	pendingName  string
	doctypeDepth int
	pendingDTDPublic string
	pendingDTDSystem string
	fatal        error
}

// New returns a Tokenizer that delivers tokens to consumer.
func New(consumer Consumer) *Tokenizer {
	return &Tokenizer{consumer: consumer, state: stateProlog}
}

// SetLocator installs the locator the Tokenizer updates as it advances.
func (t *Tokenizer) SetLocator(l *sax.Locator) { t.locator = l }

// SetXML11 toggles acceptance of XML 1.1 syntax (feature flag xml-1.1).
func (t *Tokenizer) SetXML11(v bool) { t.xml11 = v }

// SetFragmentMode exempts Close from requiring a root element, for
// tokenizing a general entity's replacement text, which is
// re-tokenized as content rather than as a standalone document.
func (t *Tokenizer) SetFragmentMode(v bool) { t.fragment = v }

// Err returns the fatal error the tokenizer stopped on, if any.
func (t *Tokenizer) Err() error { return t.fatal }

func (t *Tokenizer) fail(code, format string, args ...interface{}) error {
	loc := xerr.Loc{}
	if t.locator != nil {
		loc = t.locator.Snapshot()
	}
	err := xerr.Fatalf(loc, code, format, args...)
	t.fatal = err
	t.state = stateDone
	return err
}

// Receive feeds buf to the tokenizer. Tokens are delivered to the
// Consumer by direct call before Receive returns.
func (t *Tokenizer) Receive(buf []byte) error {
	if t.fatal != nil {
		return t.fatal
	}
	if debug.Enabled {
		g := debug.IPrintf("Tokenizer.Receive(%d bytes)", len(buf))
		defer g.IRelease("Tokenizer.Receive done")
	}
	t.buf = append(t.buf, buf...)
	return t.drain(false)
}

// Close signals end of input. It flushes any terminal tokens (trailing
// character data) and fails with CodeUnexpectedEOF if an open
// construct remains.
func (t *Tokenizer) Close() error {
	if t.fatal != nil {
		return t.fatal
	}
	if err := t.drain(true); err != nil {
		return err
	}
	switch t.state {
	case stateProlog, stateContent, stateDone:
		if t.state == stateContent && len(t.buf) > 0 {
			if err := t.emitCharData(); err != nil {
				return err
			}
		}
		if !t.rootSeen && !t.fragment {
			return t.fail(xerr.CodeUnexpectedEOF, "document ended before root element")
		}
		t.state = stateDone
		return nil
	default:
		return t.fail(xerr.CodeUnexpectedEOF, "unexpected end of input in state %d", t.state)
	}
}

// drain repeatedly advances the state machine until it can make no
// further progress without more input (eof=false) or until the buffer
// is exhausted (eof=true, used to flush terminal constructs).
func (t *Tokenizer) drain(eof bool) error {
	for {
		progressed, err := t.step(eof)
		if err != nil {
			return err
		}
		if !progressed {
			return nil
		}
	}
}

// step attempts one lexical transition. It returns progressed=false
// when the buffer does not yet contain enough bytes to decide.
func (t *Tokenizer) step(eof bool) (bool, error) {
	switch t.state {
	case stateProlog:
		return t.stepProlog(eof)
	case stateContent:
		return t.stepContent(eof)
	case stateMarkupStart:
		return t.stepMarkupStart(eof)
	case stateBangStart:
		return t.stepBangStart(eof)
	case stateTagName:
		return t.stepTagName(eof)
	case stateEndTagName:
		return t.stepEndTagName(eof)
	case stateInTag:
		return t.stepInTag(eof)
	case stateAttrName:
		return t.stepAttrName(eof)
	case stateAfterAttrName:
		return t.stepAfterAttrName(eof)
	case stateAttrValue:
		return t.stepAttrValue(eof)
	case stateComment:
		return t.stepComment(eof)
	case stateCDATA:
		return t.stepCDATA(eof)
	case statePITarget:
		return t.stepPITarget(eof)
	case statePIData:
		return t.stepPIData(eof)
	case stateDoctype:
		return t.stepDoctype(eof)
	case stateDoctypeSubset:
		return t.stepDoctypeSubset(eof)
	default:
		return false, nil
	}
}

func (t *Tokenizer) consume(n int) {
	t.buf = t.buf[n:]
	t.atPos += int64(n)
}

func (t *Tokenizer) advanceLocator(consumed []byte) {
	if t.locator == nil {
		return
	}
	nl := strings.Count(string(consumed), "\n")
	if nl > 0 {
		last := strings.LastIndexByte(string(consumed), '\n')
		t.locator.Advance(int64(len(consumed)), nl, len(consumed)-last-1)
	} else {
		t.locator.Advance(int64(len(consumed)), 0, len(consumed))
	}
}

func (t *Tokenizer) emit(tok *Token) error {
	if t.locator != nil {
		tok.Pos = Pos{Line: t.locator.Line, Column: t.locator.Column, Offset: t.locator.Offset}
	}
	return t.consumer.Token(tok)
}

// ---- prolog ----

func (t *Tokenizer) stepProlog(eof bool) (bool, error) {
	if len(t.buf) == 0 {
		return false, nil
	}
	if t.buf[0] != '<' {
		t.state = stateContent
		return true, nil
	}
	if !t.sawXMLDecl && !eof && len(t.buf) < len("<?xml") && strings.HasPrefix("<?xml", string(t.buf)) {
		// Too few bytes yet to tell an XML declaration from other markup.
		return false, nil
	}
	if !t.sawXMLDecl && bytesHasPrefix(t.buf, "<?xml") {
		return t.stepXMLDecl(eof)
	}
	t.state = stateMarkupStart
	consumed := t.buf[:1]
	t.consume(1)
	t.advanceLocator(consumed)
	return true, nil
}

func (t *Tokenizer) stepXMLDecl(eof bool) (bool, error) {
	idx := indexOf(t.buf, "?>")
	if idx < 0 {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated XML declaration")
		}
		return false, nil
	}
	body := string(t.buf[len("<?xml") : idx])
	tok := Get()
	tok.Kind = XMLDecl
	tok.Version, tok.Encoding, tok.Standalone = parseXMLDeclAttrs(body)
	if tok.Version != "1.1" {
		tok.Version = "1.0"
	}
	if tok.Version == "1.1" {
		t.xml11 = true
	}
	consumed := t.buf[:idx+2]
	err := t.emit(tok)
	Put(tok)
	if err != nil {
		return false, err
	}
	t.sawXMLDecl = true
	t.consume(idx + 2)
	t.advanceLocator(consumed)
	t.state = stateProlog
	return true, nil
}

func parseXMLDeclAttrs(body string) (version, encoding, standalone string) {
	version = scanDeclAttr(body, "version")
	encoding = scanDeclAttr(body, "encoding")
	standalone = scanDeclAttr(body, "standalone")
	return
}

func scanDeclAttr(body, name string) string {
	idx := strings.Index(body, name+"=")
	if idx < 0 {
		return ""
	}
	rest := body[idx+len(name)+1:]
	rest = strings.TrimLeft(rest, " \t\r\n")
	if len(rest) == 0 {
		return ""
	}
	q := rest[0]
	if q != '"' && q != '\'' {
		return ""
	}
	end := strings.IndexByte(rest[1:], q)
	if end < 0 {
		return ""
	}
	return rest[1 : 1+end]
}

// ---- content ----

func (t *Tokenizer) stepContent(eof bool) (bool, error) {
	if len(t.buf) == 0 {
		return false, nil
	}
	// Scan for the next '<' or '&'.
	i := 0
	for i < len(t.buf) && t.buf[i] != '<' && t.buf[i] != '&' {
		i++
	}
	if i == len(t.buf) {
		if !eof {
			// Might be mid run; wait for more so that a maximal run of
			// plain character data is emitted as one token.
			return false, nil
		}
		if i > 0 {
			return t.flushCharRun(i)
		}
		return false, nil
	}
	if i > 0 {
		return t.flushCharRun(i)
	}
	if t.buf[0] == '<' {
		t.state = stateMarkupStart
		consumed := t.buf[:1]
		t.consume(1)
		t.advanceLocator(consumed)
		return true, nil
	}
	// '&'
	return t.stepEntityRefInContent(eof)
}

func (t *Tokenizer) flushCharRun(n int) (bool, error) {
	tok := Get()
	tok.Kind = CharData
	tok.Text = string(t.buf[:n])
	consumed := t.buf[:n]
	err := t.emit(tok)
	Put(tok)
	if err != nil {
		return false, err
	}
	t.consume(n)
	t.advanceLocator(consumed)
	return true, nil
}

func (t *Tokenizer) emitCharData() error {
	if len(t.buf) == 0 {
		return nil
	}
	_, err := t.flushCharRun(len(t.buf))
	return err
}

func (t *Tokenizer) stepEntityRefInContent(eof bool) (bool, error) {
	idx := indexByteFrom(t.buf, ';', 1)
	if idx < 0 {
		if len(t.buf) > 64 {
			return false, t.fail(xerr.CodeMalformedEntity, "unterminated entity reference")
		}
		if eof {
			return false, t.fail(xerr.CodeMalformedEntity, "unterminated entity reference")
		}
		return false, nil
	}
	name := string(t.buf[1:idx])
	consumed := t.buf[:idx+1]
	tok, err := t.resolveEntityToken(name)
	if err != nil {
		return false, err
	}
	emitErr := t.emit(tok)
	Put(tok)
	if emitErr != nil {
		return false, emitErr
	}
	t.consume(idx + 1)
	t.advanceLocator(consumed)
	return true, nil
}

func (t *Tokenizer) resolveEntityToken(name string) (*Token, error) {
	tok := Get()
	if strings.HasPrefix(name, "#") {
		r, err := decodeCharRef(name)
		if err != nil {
			Put(tok)
			return nil, t.fail(xerr.CodeMalformedEntity, "%s", err.Error())
		}
		if !isCharInRange(r, t.xml11) {
			Put(tok)
			return nil, t.fail(xerr.CodeDisallowedChar, "character reference to disallowed codepoint U+%X", r)
		}
		tok.Kind = EntityRef
		tok.Text = string(r)
		return tok, nil
	}
	if repl, ok := predefinedEntity(name); ok {
		tok.Kind = EntityRef
		tok.Text = repl
		return tok, nil
	}
	if !isValidName(name) {
		Put(tok)
		return nil, t.fail(xerr.CodeMalformedEntity, "invalid entity name %q", name)
	}
	tok.Kind = GeneralEntityRef
	tok.Name = name
	return tok, nil
}

func predefinedEntity(name string) (string, bool) {
	switch name {
	case "amp":
		return "&", true
	case "lt":
		return "<", true
	case "gt":
		return ">", true
	case "apos":
		return "'", true
	case "quot":
		return "\"", true
	default:
		return "", false
	}
}

func decodeCharRef(ref string) (rune, error) {
	body := ref[1:]
	var n int64
	var err error
	if strings.HasPrefix(body, "x") || strings.HasPrefix(body, "X") {
		n, err = strconv.ParseInt(body[1:], 16, 32)
	} else {
		n, err = strconv.ParseInt(body, 10, 32)
	}
	if err != nil {
		return 0, err
	}
	return rune(n), nil
}

func isCharInRange(r rune, xml11 bool) bool {
	switch {
	case r == 0x09 || r == 0x0A || r == 0x0D:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	case xml11 && r >= 0x1 && r <= 0x1F:
		return true // XML 1.1 allows most C0 controls via char refs
	case xml11 && r >= 0x7F && r <= 0x84:
		return true
	case xml11 && r >= 0x86 && r <= 0x9F:
		return true
	default:
		return false
	}
}

// ---- markup dispatch ----

func (t *Tokenizer) stepMarkupStart(eof bool) (bool, error) {
	if len(t.buf) == 0 {
		return false, nil
	}
	switch t.buf[0] {
	case '!':
		t.state = stateBangStart
		return true, nil
	case '?':
		t.consume(1)
		t.state = statePITarget
		return true, nil
	case '/':
		t.consume(1)
		t.state = stateEndTagName
		return true, nil
	default:
		t.state = stateTagName
		return true, nil
	}
}

func (t *Tokenizer) stepBangStart(eof bool) (bool, error) {
	if bytesHasPrefix(t.buf, "!--") {
		t.consume(3)
		t.state = stateComment
		return true, nil
	}
	if bytesHasPrefix(t.buf, "![CDATA[") {
		t.consume(len("![CDATA["))
		t.state = stateCDATA
		return true, nil
	}
	if bytesHasPrefix(t.buf, "!DOCTYPE") {
		t.consume(len("!DOCTYPE"))
		t.state = stateDoctype
		return true, nil
	}
	if len(t.buf) < len("![CDATA[") && !eof {
		return false, nil
	}
	return false, t.fail(xerr.CodeMalformedDocument, "unrecognized markup after '<!'")
}

// ---- comments ----

func (t *Tokenizer) stepComment(eof bool) (bool, error) {
	idx := indexOf(t.buf, "--")
	if idx < 0 {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated comment")
		}
		return false, nil
	}
	if idx+2 < len(t.buf) && t.buf[idx+2] != '>' {
		return false, t.fail(xerr.CodeMalformedDocument, "'--' is not allowed inside a comment")
	}
	if idx+2 >= len(t.buf) {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated comment")
		}
		return false, nil
	}
	tok := Get()
	tok.Kind = Comment
	tok.Text = string(t.buf[:idx])
	consumed := t.buf[:idx+3]
	err := t.emit(tok)
	Put(tok)
	if err != nil {
		return false, err
	}
	t.consume(idx + 3)
	t.advanceLocator(consumed)
	t.state = t.postMarkupState()
	return true, nil
}

// postMarkupState decides which scanning state to resume in after a
// comment, PI, or doctype completes. The tokenizer does not itself
// enforce where these are legal (single root element, prolog-only
// placement, etc.); that is the content parser's job, since it is
// the component that maintains the element stack.
func (t *Tokenizer) postMarkupState() lexState {
	t.sawXMLDecl = true // a comment/PI/doctype before any decl also closes the XMLDecl window
	if t.rootSeen {
		return stateContent
	}
	return stateProlog
}

// ---- CDATA ----

func (t *Tokenizer) stepCDATA(eof bool) (bool, error) {
	idx := indexOf(t.buf, "]]>")
	if idx < 0 {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated CDATA section")
		}
		return false, nil
	}
	tok := Get()
	tok.Kind = CharData
	tok.Text = string(t.buf[:idx])
	tok.Name = "CDATA" // marks this CharData as originating from a CDATA section
	consumed := t.buf[:idx+3]
	err := t.emit(tok)
	Put(tok)
	if err != nil {
		return false, err
	}
	t.consume(idx + 3)
	t.advanceLocator(consumed)
	t.state = stateContent
	return true, nil
}

// ---- processing instructions ----

func (t *Tokenizer) stepPITarget(eof bool) (bool, error) {
	i := 0
	for i < len(t.buf) && !isSpace(t.buf[i]) && !(t.buf[i] == '?' && i+1 < len(t.buf) && t.buf[i+1] == '>') {
		i++
	}
	if i == len(t.buf) {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated processing instruction")
		}
		return false, nil
	}
	name := string(t.buf[:i])
	if !isValidName(name) {
		return false, t.fail(xerr.CodeMalformedDocument, "invalid PI target %q", name)
	}
	if strings.EqualFold(name, "xml") {
		return false, t.fail(xerr.CodeMalformedDocument, "PI target %q is reserved", name)
	}
	t.pendingName = name
	consumed := t.buf[:i]
	t.consume(i)
	t.advanceLocator(consumed)
	t.state = statePIData
	return true, nil
}

func (t *Tokenizer) stepPIData(eof bool) (bool, error) {
	idx := indexOf(t.buf, "?>")
	if idx < 0 {
		if eof {
			return false, t.fail(xerr.CodeUnexpectedEOF, "unterminated processing instruction")
		}
		return false, nil
	}
	data := t.buf[:idx]
	data = bytesTrimLeadingSpace(data)
	tok := Get()
	tok.Kind = PITarget
	tok.Name = t.pendingName
	tok.Text = string(data)
	consumed := t.buf[:idx+2]
	err := t.emit(tok)
	Put(tok)
	if err != nil {
		return false, err
	}
	t.consume(idx + 2)
	t.advanceLocator(consumed)
	t.state = t.postMarkupState()
	return true, nil
}

// ---- helpers ----

func bytesHasPrefix(b []byte, s string) bool {
	return len(b) >= len(s) && string(b[:len(s)]) == s
}

func indexOf(b []byte, s string) int {
	return strings.Index(string(b), s)
}

func indexByteFrom(b []byte, c byte, from int) int {
	if from >= len(b) {
		return -1
	}
	idx := strings.IndexByte(string(b[from:]), c)
	if idx < 0 {
		return -1
	}
	return idx + from
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func bytesTrimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	return b[i:]
}

func isNameStartByte(c byte) bool {
	return c == '_' || c == ':' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isNameByte(c byte) bool {
	return isNameStartByte(c) || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

func isValidName(s string) bool {
	if s == "" {
		return false
	}
	if !isNameStartByte(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isNameByte(s[i]) {
			return false
		}
	}
	return true
}
