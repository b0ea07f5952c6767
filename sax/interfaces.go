// Package sax defines the event-consumer boundary: a family of narrow
// interfaces a downstream consumer implements the subset of, plus a
// concrete SAX struct of optional handler functions for consumers
// that would rather not implement a fat interface.
//
// The shape is lifted from github.com/lestrrat/helium/sax: Context is
// kept opaque (an interface{}) so callers can type-assert whatever
// state object they need.
package sax

// Context is always passed as the first argument to SAX handlers. It
// is intentionally opaque; the content parser passes its own internal
// parse context, which validators and consumers may type-assert.
type Context interface{}

// ContentHandler receives notification of the logical content of a
// document: elements, character data, processing instructions, and
// namespace scope changes.
type ContentHandler interface {
	SetDocumentLocator(ctx Context, loc DocumentLocator) error
	StartDocument(ctx Context) error
	EndDocument(ctx Context) error
	StartPrefixMapping(ctx Context, prefix, uri string) error
	EndPrefixMapping(ctx Context, prefix string) error
	StartElement(ctx Context, elem ParsedElement) error
	EndElement(ctx Context, elem ParsedElement) error
	Characters(ctx Context, text []byte) error
	IgnorableWhitespace(ctx Context, text []byte) error
	ProcessingInstruction(ctx Context, target, data string) error
	SkippedEntity(ctx Context, name string) error
}

// DTDHandler receives the subset of DTD notification events that SAX1
// exposed directly (most DTD events live on DeclHandler instead).
type DTDHandler interface {
	NotationDecl(ctx Context, name, publicID, systemID string) error
	UnparsedEntityDecl(ctx Context, name, publicID, systemID, notationName string) error
}

// LexicalHandler is the SAX2 extension for lexical events: comments,
// CDATA section bracketing, and entity-expansion bracketing.
type LexicalHandler interface {
	Comment(ctx Context, text []byte) error
	StartCDATA(ctx Context) error
	EndCDATA(ctx Context) error
	StartDTD(ctx Context, name, publicID, systemID string) error
	EndDTD(ctx Context) error
	StartEntity(ctx Context, name string) error
	EndEntity(ctx Context, name string) error
}

// DeclHandler is the SAX2 extension for DTD declaration events.
type DeclHandler interface {
	ElementDecl(ctx Context, name string, model string) error
	AttributeDecl(ctx Context, eName, aName, typ, mode, value string) error
	InternalEntityDecl(ctx Context, name, value string) error
	ExternalEntityDecl(ctx Context, name, publicID, systemID string) error
}

// EntityResolver maps external entity references to an InputSource, or
// signals "use default resolution" by returning a nil source and nil
// error.
type EntityResolver interface {
	ResolveEntity(ctx Context, publicID, systemID string) (InputSource, error)
}

// InputSource is a resolved external reference: a byte stream plus the
// base URI events should report as the system id.
type InputSource interface {
	SystemID() string
	Read(p []byte) (int, error)
	Close() error
}

// ErrorHandler receives the three error severities the parser reports.
// Warning and Error must never stop the parse; Fatal must.
type ErrorHandler interface {
	Warning(ctx Context, err error)
	Error(ctx Context, err error)
	Fatal(ctx Context, err error)
}
