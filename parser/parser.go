// Package parser implements the content parser / grammar driver: it
// consumes the token stream from package token, resolves namespaces
// via package nsctx, applies DTD declarations from package dtd, and
// emits the SAX event sequence defined by package sax.
//
// The four-step attribute processing pipeline (expand char/predefined
// refs at the tokenizer, expand named general-entity refs, normalize
// whitespace per the declared type, apply DTD defaults) and the
// namespace-scope bracketing around StartElement/EndElement drive the
// control flow in the same re-entrant, never-blocking shape as
// token.Tokenizer and dtd.Parser.
package parser

import (
	"io"

	"github.com/cpkb-bluezoo/gonzalez-sub009/dtd"
	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/debug"
	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"
	"github.com/cpkb-bluezoo/gonzalez-sub009/nsctx"
	"github.com/cpkb-bluezoo/gonzalez-sub009/sax"
	"github.com/cpkb-bluezoo/gonzalez-sub009/token"
)

// Handlers bundles the consumer interfaces a Parser drives. Every
// field is optional; a nil field's events are simply not delivered.
// sax.SAX implements all six and can be used directly for every field.
type Handlers struct {
	Content  sax.ContentHandler
	DTD      sax.DTDHandler
	Lexical  sax.LexicalHandler
	Decl     sax.DeclHandler
	Resolver sax.EntityResolver
	Errors   sax.ErrorHandler
}

const maxEntityDepth = 64

// elemFrame tracks one open element for namespace scoping and DTD
// content-model bookkeeping.
type elemFrame struct {
	elem      sax.Element
	nsPushed  []string // prefixes bound at this scope, for EndPrefixMapping
}

// Parser drives package token's push tokenizer, resolving namespaces
// and applying DTD declarations, and reports the resulting SAX event
// sequence to Handlers.
type Parser struct {
	h        Handlers
	features *FeatureSet

	ns      *nsctx.Tracker
	locator *sax.Locator
	tok     *token.Tokenizer

	elems      []elemFrame
	rootClosed bool
	charBuf    []byte

	pendingTag      string
	pendingAttrName string
	pendingRaw      []rawAttr

	dtdTables    *dtd.DeclTables
	dtdValidator *dtd.Validator
	haveDTD      bool

	entityDepth int
	fatal       error
	started     bool
}

// New returns a Parser that reports events to h using the given
// feature configuration (NewFeatureSet for the defaults).
func New(h Handlers, features *FeatureSet) *Parser {
	if features == nil {
		features = NewFeatureSet()
	}
	p := &Parser{
		h:        h,
		features: features,
		ns:       nsctx.New(),
		locator:  &sax.Locator{},
	}
	p.tok = token.New(p)
	p.tok.SetLocator(p.locator)
	p.tok.SetXML11(features.XML11)
	return p
}

// Receive feeds buf to the underlying tokenizer; events are delivered
// to Handlers synchronously before Receive returns.
func (p *Parser) Receive(buf []byte) error {
	if debug.Enabled {
		g := debug.IPrintf("Parser.Receive(%d bytes)", len(buf))
		defer g.Release("Parser.Receive done")
	}
	if p.fatal != nil {
		return p.fatal
	}
	if !p.started {
		p.started = true
		if err := p.emitStartDocument(); err != nil {
			return p.setFatal(err)
		}
	}
	if err := p.tok.Receive(buf); err != nil {
		return p.setFatal(err)
	}
	return nil
}

// Close signals end of input, flushing any terminal events.
func (p *Parser) Close() error {
	if debug.Enabled {
		g := debug.IPrintf("Parser.Close")
		defer g.Release("Parser.Close done")
	}
	if p.fatal != nil {
		return p.fatal
	}
	if !p.started {
		p.started = true
		if err := p.emitStartDocument(); err != nil {
			return p.setFatal(err)
		}
	}
	if err := p.tok.Close(); err != nil {
		return p.setFatal(err)
	}
	if err := p.flushChars(); err != nil {
		return err
	}
	if p.features.Validation && p.dtdValidator != nil {
		for _, e := range p.dtdValidator.Finish() {
			p.reportDTDError(e)
		}
	}
	if err := p.emitEndDocument(); err != nil {
		return p.setFatal(err)
	}
	return nil
}

// ParseReader is a convenience wrapper that drains r in fixed-size
// chunks through Receive/Close, for callers that have a whole
// io.Reader rather than their own chunking source.
func (p *Parser) ParseReader(r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if perr := p.Receive(buf[:n]); perr != nil {
				return perr
			}
		}
		if err == io.EOF {
			return p.Close()
		}
		if err != nil {
			return err
		}
	}
}

// setFatal records the parse-ending error and reports it once. A
// caller may pass back an error that already went through setFatal
// (flushChars does, on its own error paths) without triggering a
// second Fatal callback for the same error.
func (p *Parser) setFatal(err error) error {
	if p.fatal == err {
		return err
	}
	p.fatal = err
	if xe, ok := err.(*xerr.Error); ok && p.h.Errors != nil {
		p.h.Errors.Fatal(p, xe)
	}
	return err
}

func (p *Parser) reportDTDError(e *xerr.Error) {
	if p.h.Errors == nil {
		return
	}
	switch e.Severity {
	case xerr.Warning:
		p.h.Errors.Warning(p, e)
	default:
		p.h.Errors.Error(p, e)
	}
}

func (p *Parser) emitStartDocument() error {
	if p.h.Content == nil {
		return nil
	}
	if err := p.h.Content.SetDocumentLocator(p, p.locator); err != nil {
		return err
	}
	return p.h.Content.StartDocument(p)
}

func (p *Parser) emitEndDocument() error {
	if p.h.Content == nil {
		return nil
	}
	return p.h.Content.EndDocument(p)
}

func (p *Parser) loc() xerr.Loc { return p.locator.Snapshot() }
