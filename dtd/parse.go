package dtd

import (
	"strings"

	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/debug"
	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"
)

// Parser parses markup declarations into a *DeclTables. It is fed the
// raw internal-subset text the tokenizer captures between '[' and ']',
// or an external subset's full text once resolved via an
// EntityResolver/InputSource, both cases going through the same Parse
// call, with external=true relaxing the parameter-entity placement
// rule (see DESIGN.md, Open Question 2).
type Parser struct {
	Tables *DeclTables
}

// NewParser returns a Parser accumulating into a fresh DeclTables.
func NewParser() *Parser {
	return &Parser{Tables: NewDeclTables()}
}

// Parse scans subset and adds declarations to p.Tables.
func (p *Parser) Parse(subset string, external bool) error {
	if debug.Enabled {
		g := debug.IPrintf("dtd.Parser.Parse(%d bytes, external=%v)", len(subset), external)
		defer g.Release("dtd.Parser.Parse done")
	}
	s := newScanner(subset)
	for {
		s.skipSpace()
		if s.eof() {
			return nil
		}
		if err := p.parseTopLevelPERef(s); err != nil {
			return err
		}
		s.skipSpace()
		if s.eof() {
			return nil
		}
		rest := s.remainderOfFrame()
		switch {
		case strings.HasPrefix(rest, "<!--"):
			if err := skipComment(s); err != nil {
				return err
			}
		case strings.HasPrefix(rest, "<?"):
			if err := skipPI(s); err != nil {
				return err
			}
		case strings.HasPrefix(rest, "<!ELEMENT"):
			if err := p.parseElementDecl(s, external); err != nil {
				return err
			}
		case strings.HasPrefix(rest, "<!ATTLIST"):
			if err := p.parseAttlistDecl(s, external); err != nil {
				return err
			}
		case strings.HasPrefix(rest, "<!ENTITY"):
			if err := p.parseEntityDecl(s, external); err != nil {
				return err
			}
		case strings.HasPrefix(rest, "<!NOTATION"):
			if err := p.parseNotationDecl(s, external); err != nil {
				return err
			}
		default:
			return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "unrecognized markup declaration near %q", truncate(rest, 20))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// parseTopLevelPERef expands a "%name;" reference that appears between
// declarations (always legal, internal or external subset).
func (p *Parser) parseTopLevelPERef(s *scanner) error {
	rest := s.remainderOfFrame()
	if !strings.HasPrefix(rest, "%") {
		return nil
	}
	idx := strings.IndexByte(rest, ';')
	if idx < 0 {
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedEntity, "unterminated parameter entity reference")
	}
	name := rest[1:idx]
	decl, ok := p.Tables.ParamEnt[name]
	if !ok {
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedEntity, "undeclared parameter entity %q", name)
	}
	s.advance(idx + 1)
	if decl.External() {
		// External parameter entity content is not fetched by this
		// simplified scanner; treat as empty rather than resolving it.
		return nil
	}
	return s.pushReplacement(decl.Value)
}

// scanDeclarationBody reads from just after the declaration keyword to
// the matching top-level '>', expanding "%name;" references inline if
// external is true. In the internal subset, a PE reference inside a
// declaration is rejected (Open Question 2: the original source
// rejects this in all cases; we match that and relax only for
// external subsets, which the XML spec itself allows).
func (p *Parser) scanDeclarationBody(s *scanner, external bool) (string, error) {
	var b strings.Builder
	quote := byte(0)
	for {
		c, ok := s.peekByte()
		if !ok {
			return "", xerr.Fatalf(xerr.Loc{}, xerr.CodeUnexpectedEOF, "unterminated markup declaration")
		}
		if c == '%' && quote == 0 {
			if next := s.remainderOfFrame(); len(next) > 1 && isSpaceByte(next[1]) {
				// "<!ENTITY % name ...": a '%' followed by whitespace
				// marks a parameter-entity declaration, not a reference.
				b.WriteByte(c)
				s.advance(1)
				continue
			}
			if !external {
				return "", xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "parameter entity reference not allowed inside a declaration in the internal subset")
			}
			rest := s.remainderOfFrame()
			idx := strings.IndexByte(rest, ';')
			if idx < 0 {
				return "", xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedEntity, "unterminated parameter entity reference")
			}
			name := rest[1:idx]
			decl, ok := p.Tables.ParamEnt[name]
			if !ok {
				return "", xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedEntity, "undeclared parameter entity %q", name)
			}
			s.advance(idx + 1)
			if !decl.External() {
				if err := s.pushReplacement(decl.Value); err != nil {
					return "", err
				}
			}
			continue
		}
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
			s.advance(1)
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			b.WriteByte(c)
			s.advance(1)
			continue
		}
		if c == '>' {
			s.advance(1)
			return b.String(), nil
		}
		b.WriteByte(c)
		s.advance(1)
	}
}

func skipComment(s *scanner) error {
	s.advance(len("<!--"))
	rest := s.remainderOfFrame()
	idx := strings.Index(rest, "-->")
	if idx < 0 {
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeUnexpectedEOF, "unterminated comment in DTD")
	}
	s.advance(idx + 3)
	return nil
}

func skipPI(s *scanner) error {
	s.advance(len("<?"))
	rest := s.remainderOfFrame()
	idx := strings.Index(rest, "?>")
	if idx < 0 {
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeUnexpectedEOF, "unterminated processing instruction in DTD")
	}
	s.advance(idx + 2)
	return nil
}
