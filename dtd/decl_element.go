package dtd

import (
	"strings"

	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"
)

func (p *Parser) parseElementDecl(s *scanner, external bool) error {
	s.advance(len("<!ELEMENT"))
	body, err := p.scanDeclarationBody(s, external)
	if err != nil {
		return err
	}
	body = strings.TrimSpace(body)
	name, rest := splitFirstToken(body)
	if name == "" {
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "missing element name in <!ELEMENT>")
	}
	rest = strings.TrimSpace(rest)
	decl := &ElementDecl{Name: name}
	switch {
	case rest == "EMPTY":
		decl.Kind = EmptyElementType
		decl.Content = &ElementContent{Type: ContentElement}
	case rest == "ANY":
		decl.Kind = AnyElementType
	case strings.HasPrefix(rest, "("):
		content, mixed, err := parseContentSpec(rest)
		if err != nil {
			return err
		}
		if mixed {
			decl.Kind = MixedElementType
		} else {
			decl.Kind = ChildrenElementType
		}
		decl.Content = content
	default:
		return xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "invalid content spec for element %q", name)
	}
	p.Tables.Elements[name] = decl
	return nil
}

func splitFirstToken(s string) (tok, rest string) {
	i := 0
	for i < len(s) && !isSpaceByte(s[i]) {
		i++
	}
	tok = s[:i]
	for i < len(s) && isSpaceByte(s[i]) {
		i++
	}
	return tok, s[i:]
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// parseContentSpec parses a "(...)occur" content-model expression,
// returning the tree and whether it was a MIXED (#PCDATA...) spec.
func parseContentSpec(s string) (*ElementContent, bool, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#PCDATA") && !strings.HasPrefix(strings.TrimPrefix(s, "("), "#PCDATA") {
		node, _, err := parseParticle(s, 0)
		return node, false, err
	}
	// MIXED content: ( #PCDATA | a | b )* or (#PCDATA)
	inner := s
	if !strings.HasPrefix(inner, "(") {
		return nil, false, xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "malformed mixed-content spec")
	}
	close := matchParen(inner, 0)
	if close < 0 {
		return nil, false, xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "unbalanced parens in mixed-content spec")
	}
	body := inner[1:close]
	parts := strings.Split(body, "|")
	var names []string
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if i == 0 {
			if part != "#PCDATA" {
				return nil, false, xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "mixed content must start with #PCDATA")
			}
			continue
		}
		if part == "" {
			continue
		}
		names = append(names, part)
	}
	occurSuffix := strings.TrimSpace(inner[close+1:])
	repeatable := false
	if occurSuffix == "*" {
		repeatable = true
	} else if occurSuffix != "" {
		return nil, false, xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "invalid mixed-content occurrence %q", occurSuffix)
	} else if len(names) > 0 {
		return nil, false, xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "mixed content with element names must end in '*'")
	}
	occur := OccurOnce
	if repeatable {
		occur = OccurMult
	}
	return &ElementContent{Type: ContentPCDATA, Names: names, Occur: occur}, true, nil
}

// matchParen returns the index of the ')' matching the '(' at start.
func matchParen(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseParticle parses one particle: a parenthesized seq/choice group,
// or a bare element name, each optionally followed by ?, *, or +.
func parseParticle(s string, _ int) (*ElementContent, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "empty content-model particle")
	}
	if s[0] == '(' {
		close := matchParen(s, 0)
		if close < 0 {
			return nil, "", xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "unbalanced parens in content model")
		}
		inner := s[1:close]
		children, sep, err := splitParticleList(inner)
		if err != nil {
			return nil, "", err
		}
		var kids []*ElementContent
		for _, c := range children {
			kid, _, err := parseParticle(c, 0)
			if err != nil {
				return nil, "", err
			}
			kids = append(kids, kid)
		}
		ctype := ContentSeq
		if sep == '|' {
			ctype = ContentOr
		}
		node := &ElementContent{Type: ctype, Children: kids, Occur: OccurOnce}
		rest := s[close+1:]
		node.Occur, rest = parseOccur(rest)
		return node, rest, nil
	}
	i := 0
	for i < len(s) && !isSpaceByte(s[i]) && s[i] != ',' && s[i] != '|' && s[i] != ')' && s[i] != '?' && s[i] != '*' && s[i] != '+' {
		i++
	}
	name := s[:i]
	if name == "" {
		return nil, "", xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "malformed content-model particle")
	}
	rest := s[i:]
	occur, rest := parseOccur(rest)
	return &ElementContent{Type: ContentElement, Name: name, Occur: occur}, rest, nil
}

func parseOccur(s string) (ElementContentOccur, string) {
	if s == "" {
		return OccurOnce, s
	}
	switch s[0] {
	case '?':
		return OccurOpt, s[1:]
	case '*':
		return OccurMult, s[1:]
	case '+':
		return OccurPlus, s[1:]
	default:
		return OccurOnce, s
	}
}

// splitParticleList splits the (already paren-stripped) body of a
// group on its top-level separator, which must be uniformly ',' or
// '|' (XML does not allow mixing within one group).
func splitParticleList(body string) ([]string, byte, error) {
	depth := 0
	var parts []string
	last := 0
	var sep byte
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',', '|':
			if depth == 0 {
				if sep == 0 {
					sep = body[i]
				} else if sep != body[i] {
					return nil, 0, xerr.Fatalf(xerr.Loc{}, xerr.CodeMalformedDocument, "cannot mix ',' and '|' in one content-model group")
				}
				parts = append(parts, body[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, body[last:])
	if sep == 0 {
		sep = ','
	}
	return parts, sep, nil
}
