package parser

import (
	"github.com/cpkb-bluezoo/gonzalez-sub009/dtd"
	"github.com/cpkb-bluezoo/gonzalez-sub009/token"
)

// handleDoctypeStart parses the captured internal-subset text (if any)
// into a *dtd.DeclTables, wires up validation if the validation feature
// is on, and fires the StartDTD/declaration events a consumer asked
// for. The external subset, if named by a PUBLIC/SYSTEM identifier, is
// not fetched; external resolution is out of scope for this parser,
// matching the stance dtd.Parser already takes for external parameter
// entities.
func (p *Parser) handleDoctypeStart(tok *token.Token) error {
	p.haveDTD = true

	dp := dtd.NewParser()
	if tok.Internal != "" {
		if err := dp.Parse(tok.Internal, false); err != nil {
			return p.setFatal(err)
		}
	}
	p.dtdTables = dp.Tables
	if p.features.Validation {
		p.dtdValidator = dtd.NewValidator(p.dtdTables)
	}

	if p.h.Lexical != nil {
		if err := p.h.Lexical.StartDTD(p, tok.Name, tok.PublicID, tok.SystemID); err != nil {
			return err
		}
	}
	return p.fireDeclEvents(p.dtdTables)
}

func (p *Parser) handleDoctypeEnd(tok *token.Token) error {
	if p.h.Lexical == nil {
		return nil
	}
	return p.h.Lexical.EndDTD(p)
}

// fireDeclEvents replays a freshly parsed DeclTables through DTDHandler
// and DeclHandler, for consumers that want the raw declarations rather
// than (or alongside) validation results. Declaration order within each
// table is not preserved, since DeclTables keys declarations by name;
// consumers that depend on source order should look elsewhere.
func (p *Parser) fireDeclEvents(tables *dtd.DeclTables) error {
	if p.h.DTD != nil {
		for _, n := range tables.Notations {
			if err := p.h.DTD.NotationDecl(p, n.Name, n.PublicID, n.SystemID); err != nil {
				return err
			}
		}
		for _, e := range tables.GeneralEnt {
			if e.Unparsed() {
				if err := p.h.DTD.UnparsedEntityDecl(p, e.Name, e.PublicID, e.SystemID, e.Notation); err != nil {
					return err
				}
			}
		}
	}
	if p.h.Decl == nil {
		return nil
	}
	for _, e := range tables.Elements {
		if err := p.h.Decl.ElementDecl(p, e.Name, e.ModelString()); err != nil {
			return err
		}
	}
	for _, byName := range tables.Attlists {
		for _, ad := range byName {
			value := dtd.ResolveDefault(ad, tables)
			if err := p.h.Decl.AttributeDecl(p, ad.Element, ad.Name, ad.Type.String(), ad.Mode.String(), value); err != nil {
				return err
			}
		}
	}
	for _, e := range tables.GeneralEnt {
		if e.Unparsed() {
			continue
		}
		if e.External() {
			if err := p.h.Decl.ExternalEntityDecl(p, e.Name, e.PublicID, e.SystemID); err != nil {
				return err
			}
		} else {
			if err := p.h.Decl.InternalEntityDecl(p, e.Name, e.Value); err != nil {
				return err
			}
		}
	}
	return nil
}
