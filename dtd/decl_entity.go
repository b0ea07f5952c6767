package dtd

import (
	"strings"

	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"
)

func (p *Parser) parseEntityDecl(s *scanner, external bool) error {
	s.advance(len("<!ENTITY"))
	body, err := p.scanDeclarationBody(s, external)
	if err != nil {
		return err
	}
	body = strings.TrimSpace(body)
	isParam := false
	if strings.HasPrefix(body, "%") {
		isParam = true
		body = strings.TrimSpace(body[1:])
	}
	name, rest := splitFirstToken(body)
	if name == "" {
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "missing entity name in <!ENTITY>")
	}
	rest = strings.TrimSpace(rest)

	decl := &EntityDecl{Name: name}

	switch {
	case strings.HasPrefix(rest, "\"") || strings.HasPrefix(rest, "'"):
		lit, tail, err := scanQuotedLiteral(rest)
		if err != nil {
			return err
		}
		rest = strings.TrimSpace(tail)
		if rest != "" {
			return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "unexpected trailing content after internal entity value in %q", name)
		}
		decl.Value = lit
		if isParam {
			decl.Type = InternalParameterEntity
		} else {
			decl.Type = InternalGeneralEntity
		}

	case strings.HasPrefix(rest, "PUBLIC"):
		rest = strings.TrimSpace(rest[len("PUBLIC"):])
		pub, tail, err := scanQuotedLiteral(rest)
		if err != nil {
			return err
		}
		rest = strings.TrimSpace(tail)
		sys, tail, err := scanQuotedLiteral(rest)
		if err != nil {
			return err
		}
		decl.PublicID = pub
		decl.SystemID = sys
		rest = strings.TrimSpace(tail)
		if err := p.finishExternalEntity(decl, rest, isParam, name); err != nil {
			return err
		}

	case strings.HasPrefix(rest, "SYSTEM"):
		rest = strings.TrimSpace(rest[len("SYSTEM"):])
		sys, tail, err := scanQuotedLiteral(rest)
		if err != nil {
			return err
		}
		decl.SystemID = sys
		rest = strings.TrimSpace(tail)
		if err := p.finishExternalEntity(decl, rest, isParam, name); err != nil {
			return err
		}

	default:
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "malformed entity value for %q near %q", name, truncate(rest, 20))
	}

	if isParam {
		if _, exists := p.Tables.ParamEnt[name]; !exists {
			p.Tables.ParamEnt[name] = decl
		}
	} else {
		if _, exists := p.Tables.GeneralEnt[name]; !exists {
			p.Tables.GeneralEnt[name] = decl
		}
	}
	return nil
}

// finishExternalEntity handles the optional "NDATA notation" suffix of
// an external general entity, which marks it unparsed. Parameter
// entities may never carry NDATA.
func (p *Parser) finishExternalEntity(decl *EntityDecl, rest string, isParam bool, name string) error {
	if rest == "" {
		if isParam {
			decl.Type = ExternalParameterEntity
		} else {
			decl.Type = ExternalGeneralParsedEntity
		}
		return nil
	}
	if isParam || !strings.HasPrefix(rest, "NDATA") {
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "unexpected trailing content after external entity id for %q", name)
	}
	rest = strings.TrimSpace(rest[len("NDATA"):])
	notation, rest := splitFirstToken(rest)
	if notation == "" {
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "missing notation name in NDATA clause for %q", name)
	}
	if strings.TrimSpace(rest) != "" {
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "unexpected trailing content after NDATA clause for %q", name)
	}
	decl.Type = ExternalGeneralUnparsedEntity
	decl.Notation = notation
	return nil
}

func (p *Parser) parseNotationDecl(s *scanner, external bool) error {
	s.advance(len("<!NOTATION"))
	body, err := p.scanDeclarationBody(s, external)
	if err != nil {
		return err
	}
	body = strings.TrimSpace(body)
	name, rest := splitFirstToken(body)
	if name == "" {
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "missing notation name in <!NOTATION>")
	}
	rest = strings.TrimSpace(rest)
	decl := &NotationDecl{Name: name}
	switch {
	case strings.HasPrefix(rest, "PUBLIC"):
		rest = strings.TrimSpace(rest[len("PUBLIC"):])
		pub, tail, err := scanQuotedLiteral(rest)
		if err != nil {
			return err
		}
		decl.PublicID = pub
		tail = strings.TrimSpace(tail)
		if tail != "" {
			sys, tail2, err := scanQuotedLiteral(tail)
			if err != nil {
				return err
			}
			decl.SystemID = sys
			if strings.TrimSpace(tail2) != "" {
				return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "unexpected trailing content in NOTATION %q", name)
			}
		}
	case strings.HasPrefix(rest, "SYSTEM"):
		rest = strings.TrimSpace(rest[len("SYSTEM"):])
		sys, tail, err := scanQuotedLiteral(rest)
		if err != nil {
			return err
		}
		decl.SystemID = sys
		if strings.TrimSpace(tail) != "" {
			return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "unexpected trailing content in NOTATION %q", name)
		}
	default:
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "malformed NOTATION declaration %q", name)
	}
	if _, exists := p.Tables.Notations[name]; !exists {
		p.Tables.Notations[name] = decl
	}
	return nil
}
