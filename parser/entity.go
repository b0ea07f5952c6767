package parser

import (
	"strings"

	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"
	"github.com/cpkb-bluezoo/gonzalez-sub009/token"
)

// expandGeneralEntity handles a named general-entity reference found
// in content. Internal entities are re-tokenized
// in fragment mode and fed back through this same Parser, bracketed by
// StartEntity/EndEntity; external entities are reported via
// SkippedEntity rather than fetched, matching the stance the DTD
// parser already takes for external parameter entities.
func (p *Parser) expandGeneralEntity(name string) error {
	if p.dtdTables == nil {
		return p.skippedEntity(name)
	}
	decl, ok := p.dtdTables.GeneralEnt[name]
	if !ok {
		return p.skippedEntity(name)
	}
	if decl.Unparsed() {
		return p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeUnparsedEntityRef, "entity %q is unparsed and cannot be referenced in content", name))
	}
	if decl.External() {
		if !p.features.ExternalGeneralEntities {
			return p.skippedEntity(name)
		}
		return p.skippedEntity(name)
	}

	p.entityDepth++
	if p.entityDepth > maxEntityDepth {
		p.entityDepth--
		return p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeExpansionDepth, "general entity expansion depth exceeded for %q", name))
	}
	defer func() { p.entityDepth-- }()

	if p.h.Lexical != nil {
		if err := p.h.Lexical.StartEntity(p, name); err != nil {
			return err
		}
	}
	sub := token.New(p)
	sub.SetXML11(p.features.XML11)
	sub.SetFragmentMode(true)
	if err := sub.Receive([]byte(decl.Value)); err != nil {
		return p.setFatal(err)
	}
	if err := sub.Close(); err != nil {
		return p.setFatal(err)
	}
	if p.h.Lexical != nil {
		return p.h.Lexical.EndEntity(p, name)
	}
	return nil
}

func (p *Parser) skippedEntity(name string) error {
	if p.h.Content == nil {
		return nil
	}
	return p.h.Content.SkippedEntity(p, name)
}

// expandAttrEntities performs the attribute pipeline's second step:
// substituting any "&name;" general-entity reference the
// tokenizer left untouched. Only internal entities are permitted here;
// external or unparsed entities in an attribute value are fatal
// well-formedness errors (XML 1.0 §3.1).
func (p *Parser) expandAttrEntities(raw string) (string, error) {
	if strings.IndexByte(raw, '&') < 0 {
		return raw, nil
	}
	return p.expandAttrEntitiesDepth(raw, 0)
}

func (p *Parser) expandAttrEntitiesDepth(raw string, depth int) (string, error) {
	if depth > maxEntityDepth {
		return "", p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeExpansionDepth, "attribute value entity expansion depth exceeded"))
	}
	var b strings.Builder
	i := 0
	for i < len(raw) {
		amp := strings.IndexByte(raw[i:], '&')
		if amp < 0 {
			b.WriteString(raw[i:])
			break
		}
		amp += i
		b.WriteString(raw[i:amp])
		semi := strings.IndexByte(raw[amp:], ';')
		if semi < 0 {
			return "", p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeMalformedEntity, "unterminated entity reference in attribute value"))
		}
		semi += amp
		name := raw[amp+1 : semi]
		if p.dtdTables == nil {
			return "", p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeMalformedEntity, "undeclared entity %q referenced in attribute value", name))
		}
		decl, ok := p.dtdTables.GeneralEnt[name]
		if !ok {
			return "", p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeMalformedEntity, "undeclared entity %q referenced in attribute value", name))
		}
		if decl.Unparsed() {
			return "", p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeUnparsedEntityInAttr, "unparsed entity %q cannot appear in an attribute value", name))
		}
		if decl.External() {
			return "", p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeExternalEntityInAttr, "external entity %q cannot appear in an attribute value", name))
		}
		expanded, err := p.expandAttrEntitiesDepth(decl.Value, depth+1)
		if err != nil {
			return "", err
		}
		b.WriteString(expanded)
		i = semi + 1
	}
	return b.String(), nil
}
