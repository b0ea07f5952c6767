package parser

import (
	"github.com/cpkb-bluezoo/gonzalez-sub009/dtd"
	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"
	"github.com/cpkb-bluezoo/gonzalez-sub009/token"
)

// Token implements token.Consumer, dispatching each lexical token to
// the appropriate stage of the content parser.
//
// Adjacent character data - plain CharData runs, char/predefined
// entity refs, and the CharData a nested general-entity expansion
// produces - is accumulated in p.charBuf rather than reported one
// token at a time, so that a document fed in arbitrary chunks (even
// one byte at a time) yields the same Characters event boundaries as
// the whole document fed in one call. The buffer is flushed ahead of
// every token that is not itself character data.
func (p *Parser) Token(tok *token.Token) error {
	switch tok.Kind {
	case token.CharData:
		return p.handleCharData(tok)
	case token.EntityRef:
		p.bufferChars([]byte(tok.Text))
		return nil
	case token.GeneralEntityRef:
		// A named entity may expand to further character data (or to
		// nothing, if skipped); neither case is itself a break in the
		// run of character data surrounding it, so this does not go
		// through the common flush below.
		return p.expandGeneralEntity(tok.Name)
	}

	if err := p.flushChars(); err != nil {
		return err
	}

	switch tok.Kind {
	case token.XMLDecl:
		return nil
	case token.DoctypeStart:
		return p.handleDoctypeStart(tok)
	case token.DoctypeEnd:
		return p.handleDoctypeEnd(tok)
	case token.ElementStartOpen:
		p.beginStartTag(tok.Name)
		return nil
	case token.AttributeName:
		p.pendingAttrName = tok.Name
		return nil
	case token.AttributeValue:
		return p.addPendingAttr(tok.Name, tok.Text)
	case token.ElementStartCloseEmpty:
		tagName := p.pendingTag
		if err := p.finishStartTag(); err != nil {
			return err
		}
		return p.endElement(tagName)
	case token.ElementStartClose:
		return p.finishStartTag()
	case token.ElementEnd:
		return p.endElement(tok.Name)
	case token.Comment:
		if p.h.Lexical != nil {
			return p.h.Lexical.Comment(p, []byte(tok.Text))
		}
		return nil
	case token.PITarget:
		if p.h.Content != nil {
			return p.h.Content.ProcessingInstruction(p, tok.Name, tok.Text)
		}
		return nil
	default:
		return nil
	}
}

func (p *Parser) handleCharData(tok *token.Token) error {
	if tok.Name == "CDATA" {
		if len(p.elems) == 0 {
			return p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeMalformedDocument, "CDATA section not allowed outside the root element"))
		}
		if err := p.flushChars(); err != nil {
			return err
		}
		if p.h.Lexical != nil {
			if err := p.h.Lexical.StartCDATA(p); err != nil {
				return err
			}
		}
		p.bufferChars([]byte(tok.Text))
		if err := p.flushChars(); err != nil {
			return err
		}
		if p.h.Lexical != nil {
			return p.h.Lexical.EndCDATA(p)
		}
		return nil
	}
	p.bufferChars([]byte(tok.Text))
	return nil
}

func (p *Parser) bufferChars(text []byte) {
	p.charBuf = append(p.charBuf, text...)
}

// flushChars reports whatever character data has been accumulated
// since the last flush, then clears the buffer. Outside the root
// element only whitespace is tolerated (prolog/epilog misc); any
// other pending text is a fatal well-formedness error.
func (p *Parser) flushChars() error {
	if len(p.charBuf) == 0 {
		return nil
	}
	text := p.charBuf
	p.charBuf = nil

	if len(p.elems) == 0 {
		if !isAllWhitespace(text) {
			return p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeMalformedDocument, "character data not allowed outside the root element"))
		}
		return nil
	}

	if p.features.Validation && p.dtdValidator != nil {
		p.dtdValidator.Characters(!isAllWhitespace(text))
	}

	return p.emitCharacters(text)
}

// emitCharacters routes text through Characters or IgnorableWhitespace
// depending on whether the innermost element has an element-only DTD
// content model and text is entirely whitespace ("ignorable
// whitespace is only reportable under element-content models").
func (p *Parser) emitCharacters(text []byte) error {
	if p.h.Content == nil {
		return nil
	}
	if p.innerElementContent() && isAllWhitespace(text) {
		return p.h.Content.IgnorableWhitespace(p, text)
	}
	return p.h.Content.Characters(p, text)
}

func (p *Parser) innerElementContent() bool {
	if p.dtdTables == nil {
		return false
	}
	top := &p.elems[len(p.elems)-1]
	decl := p.dtdTables.Elements[top.elem.QName()]
	return decl != nil && decl.Kind == dtd.ChildrenElementType
}

func isAllWhitespace(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return false
		}
	}
	return true
}
