package dtd

import (
	"strings"

	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"
)

func (p *Parser) parseAttlistDecl(s *scanner, external bool) error {
	s.advance(len("<!ATTLIST"))
	body, err := p.scanDeclarationBody(s, external)
	if err != nil {
		return err
	}
	body = strings.TrimSpace(body)
	elemName, rest := splitFirstToken(body)
	if elemName == "" {
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "missing element name in <!ATTLIST>")
	}
	for {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return nil
		}
		var attrName string
		attrName, rest = splitFirstToken(rest)
		if attrName == "" {
			return nil
		}
		decl := &AttributeDecl{Element: elemName, Name: attrName}
		rest = strings.TrimSpace(rest)
		var err error
		decl.Type, decl.Enum, rest, err = parseAttrType(rest)
		if err != nil {
			return err
		}
		rest = strings.TrimSpace(rest)
		decl.Mode, decl.Default, rest, err = parseAttrDefault(rest)
		if err != nil {
			return err
		}
		p.Tables.AddAttribute(decl)
	}
}

func parseAttrType(s string) (AttrType, []string, string, error) {
	switch {
	case strings.HasPrefix(s, "CDATA"):
		return AttrCDATA, nil, s[len("CDATA"):], nil
	case strings.HasPrefix(s, "IDREFS"):
		return AttrIDRefs, nil, s[len("IDREFS"):], nil
	case strings.HasPrefix(s, "IDREF"):
		return AttrIDRef, nil, s[len("IDREF"):], nil
	case strings.HasPrefix(s, "ID"):
		return AttrID, nil, s[len("ID"):], nil
	case strings.HasPrefix(s, "ENTITIES"):
		return AttrEntities, nil, s[len("ENTITIES"):], nil
	case strings.HasPrefix(s, "ENTITY"):
		return AttrEntity, nil, s[len("ENTITY"):], nil
	case strings.HasPrefix(s, "NMTOKENS"):
		return AttrNmtokens, nil, s[len("NMTOKENS"):], nil
	case strings.HasPrefix(s, "NMTOKEN"):
		return AttrNmtoken, nil, s[len("NMTOKEN"):], nil
	case strings.HasPrefix(s, "NOTATION"):
		rest := strings.TrimSpace(s[len("NOTATION"):])
		if !strings.HasPrefix(rest, "(") {
			return AttrInvalid, nil, "", xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "malformed NOTATION attribute type")
		}
		close := matchParen(rest, 0)
		if close < 0 {
			return AttrInvalid, nil, "", xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "unbalanced parens in NOTATION attribute type")
		}
		names := splitEnum(rest[1:close])
		return AttrNotation, names, rest[close+1:], nil
	case strings.HasPrefix(s, "("):
		close := matchParen(s, 0)
		if close < 0 {
			return AttrInvalid, nil, "", xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "unbalanced parens in enumerated attribute type")
		}
		names := splitEnum(s[1:close])
		return AttrEnumeration, names, s[close+1:], nil
	default:
		return AttrInvalid, nil, "", xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "unrecognized attribute type near %q", truncate(s, 20))
	}
}

func splitEnum(body string) []string {
	parts := strings.Split(body, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseAttrDefault parses the #REQUIRED / #IMPLIED / #FIXED "val" /
// "val" tail of an attribute declaration, splitting a quoted literal
// into ValueFragments wherever it contains a "&name;" general-entity
// reference (expanded later, when the default is actually applied to
// an element).
func parseAttrDefault(s string) (AttrMode, []ValueFragment, string, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#REQUIRED"):
		return ModeRequired, nil, s[len("#REQUIRED"):], nil
	case strings.HasPrefix(s, "#IMPLIED"):
		return ModeImplied, nil, s[len("#IMPLIED"):], nil
	case strings.HasPrefix(s, "#FIXED"):
		rest := strings.TrimSpace(s[len("#FIXED"):])
		lit, rest, err := scanQuotedLiteral(rest)
		if err != nil {
			return ModeNone, nil, "", err
		}
		return ModeFixed, splitValueFragments(lit), rest, nil
	case strings.HasPrefix(s, "\"") || strings.HasPrefix(s, "'"):
		lit, rest, err := scanQuotedLiteral(s)
		if err != nil {
			return ModeNone, nil, "", err
		}
		return ModeDefaulted, splitValueFragments(lit), rest, nil
	default:
		return ModeNone, nil, "", xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "malformed attribute default near %q", truncate(s, 20))
	}
}

func scanQuotedLiteral(s string) (lit, rest string, err error) {
	if s == "" || (s[0] != '"' && s[0] != '\'') {
		return "", "", xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "expected quoted literal near %q", truncate(s, 20))
	}
	q := s[0]
	idx := strings.IndexByte(s[1:], q)
	if idx < 0 {
		return "", "", xerr.Fatalf(xerr.Loc{}, xerr.CodeUnexpectedEOF, "unterminated quoted literal")
	}
	return s[1 : idx+1], s[idx+2:], nil
}

func splitValueFragments(lit string) []ValueFragment {
	var frags []ValueFragment
	i := 0
	for i < len(lit) {
		amp := strings.IndexByte(lit[i:], '&')
		if amp < 0 {
			frags = append(frags, ValueFragment{Literal: lit[i:]})
			break
		}
		amp += i
		if amp > i {
			frags = append(frags, ValueFragment{Literal: lit[i:amp]})
		}
		semi := strings.IndexByte(lit[amp:], ';')
		if semi < 0 {
			frags = append(frags, ValueFragment{Literal: lit[amp:]})
			break
		}
		semi += amp
		name := lit[amp+1 : semi]
		if name != "" && name[0] != '#' {
			frags = append(frags, ValueFragment{EntRef: name})
		} else {
			frags = append(frags, ValueFragment{Literal: lit[amp : semi+1]})
		}
		i = semi + 1
	}
	return frags
}
