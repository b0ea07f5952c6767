package parser

import (
	"strings"

	"github.com/cpkb-bluezoo/gonzalez-sub009/dtd"
	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"
	"github.com/cpkb-bluezoo/gonzalez-sub009/sax"
)

// rawAttr is one attribute as the tokenizer delivered it: a qualified
// name and a value that has already had char/predefined-entity
// references expanded, but may still contain a literal "&name;"
// general-entity reference.
type rawAttr struct {
	Name  string
	Value string
}

func (p *Parser) beginStartTag(name string) {
	p.pendingTag = name
	p.pendingRaw = p.pendingRaw[:0]
}

func (p *Parser) addPendingAttr(name, value string) error {
	p.pendingRaw = append(p.pendingRaw, rawAttr{Name: name, Value: value})
	return nil
}

// finishStartTag runs the full attribute pipeline once a start-tag's
// '>' (or '/>') has been seen: push a namespace scope,
// process xmlns declarations first, resolve every name, normalize and
// default attribute values from the DTD, validate, then emit
// StartPrefixMapping* followed by StartElement.
func (p *Parser) finishStartTag() error {
	tagName := p.pendingTag
	raws := p.pendingRaw

	if len(p.elems) == 0 && p.rootClosed {
		return p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeMultipleRoots, "element %q starts a second root element", tagName))
	}

	p.ns.PushContext()
	var pushedPrefixes []string

	if p.features.Namespaces {
		for _, a := range raws {
			prefix, local, uri, isDecl := namespaceDecl(a.Name, a.Value)
			if !isDecl {
				continue
			}
			p.ns.DeclarePrefix(prefix, uri)
			pushedPrefixes = append(pushedPrefixes, prefix)
			_ = local
		}
	}

	// Expand named general-entity refs in attribute values, then
	// resolve names and apply type-driven whitespace normalization.
	attrs := make([]*sax.Attribute, 0, len(raws))
	for _, a := range raws {
		if p.features.Namespaces && isNamespaceAttr(a.Name) {
			// Namespace declarations themselves are not reported as
			// ordinary attributes unless namespace-prefixes is set.
			if !p.features.NamespacePrefixes {
				continue
			}
		}
		val, err := p.expandAttrEntities(a.Value)
		if err != nil {
			return err
		}
		var uri, local, prefix string
		qname := a.Name
		if p.features.Namespaces {
			n, ok := p.ns.ProcessName(qname, true)
			if !ok {
				return p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeUnboundPrefix, "attribute %q uses an unbound prefix", qname))
			}
			uri, local = n.URI, n.LocalName
			if idx := strings.IndexByte(qname, ':'); idx >= 0 {
				prefix = qname[:idx]
			}
		} else {
			local = qname
		}
		attrs = append(attrs, &sax.Attribute{
			QName:     qname,
			Prefix:    prefix,
			URI:       uri,
			Local:     local,
			Value:     val,
			Type:      "CDATA",
			Specified: true,
		})
	}

	attrList := sax.NewAttributes(attrs)
	if qa, qb, dup := attrList.HasDuplicateName(); dup {
		return p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeDuplicateAttribute, "attributes %q and %q resolve to the same name", qa, qb))
	}

	if p.dtdTables != nil {
		p.applyAttrDefaults(tagName, attrList)
		p.applyAttrTypes(tagName, attrList)
	}

	var uri, local, prefix string
	if p.features.Namespaces {
		n, ok := p.ns.ProcessName(tagName, false)
		if !ok {
			return p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeUnboundPrefix, "element %q uses an unbound prefix", tagName))
		}
		uri, local = n.URI, n.LocalName
		if idx := strings.IndexByte(tagName, ':'); idx >= 0 {
			prefix = tagName[:idx]
		}
	} else {
		local = tagName
	}

	elem := sax.Element{QNameVal: tagName, PrefixV: prefix, URIVal: uri, LocalVal: local, AttrsVal: attrList}
	p.elems = append(p.elems, elemFrame{elem: elem, nsPushed: pushedPrefixes})

	if p.features.Validation && p.dtdValidator != nil {
		present := make(map[string]string, attrList.Len())
		for i := 0; i < attrList.Len(); i++ {
			a := attrList.Raw(i)
			present[a.QName] = a.Value
		}
		errs, err := p.dtdValidator.StartElement(p.loc(), tagName, present)
		if err != nil {
			return p.setFatal(err)
		}
		for _, e := range errs {
			p.reportDTDError(e)
		}
	}

	if p.h.Content != nil {
		for _, prefix := range pushedPrefixes {
			uri, _ := p.ns.GetURI(prefix)
			if err := p.h.Content.StartPrefixMapping(p, prefix, uri); err != nil {
				return err
			}
		}
		if err := p.h.Content.StartElement(p, &elem); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) endElement(name string) error {
	if len(p.elems) == 0 {
		return p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeMismatchedTag, "end tag with no matching start tag"))
	}
	top := p.elems[len(p.elems)-1]
	if name != top.elem.QName() {
		return p.setFatal(xerr.Fatalf(p.loc(), xerr.CodeMismatchedTag, "end tag %q does not match start tag %q", name, top.elem.QName()))
	}
	p.elems = p.elems[:len(p.elems)-1]
	if len(p.elems) == 0 {
		p.rootClosed = true
	}

	if p.features.Validation && p.dtdValidator != nil {
		for _, e := range p.dtdValidator.EndElement(p.loc(), top.elem.QName()) {
			p.reportDTDError(e)
		}
	}

	if p.h.Content != nil {
		if err := p.h.Content.EndElement(p, &top.elem); err != nil {
			return err
		}
		for i := len(top.nsPushed) - 1; i >= 0; i-- {
			if err := p.h.Content.EndPrefixMapping(p, top.nsPushed[i]); err != nil {
				return err
			}
		}
	}
	p.ns.PopContext()
	return nil
}

// namespaceDecl recognizes "xmlns" (default namespace) and
// "xmlns:prefix" attributes.
func namespaceDecl(name, value string) (prefix, local string, uri string, ok bool) {
	if name == "xmlns" {
		return "", "", value, true
	}
	if strings.HasPrefix(name, "xmlns:") {
		return name[len("xmlns:"):], name[len("xmlns:"):], value, true
	}
	return "", "", "", false
}

func isNamespaceAttr(name string) bool {
	return name == "xmlns" || strings.HasPrefix(name, "xmlns:")
}

func (p *Parser) applyAttrDefaults(elemName string, attrs *sax.Attributes) {
	declared := p.dtdTables.AttlistFor(elemName)
	for name, ad := range declared {
		if attrs.ByQName(name) != nil {
			continue
		}
		switch ad.Mode {
		case dtd.ModeFixed, dtd.ModeDefaulted:
			val := dtd.ResolveDefault(ad, p.dtdTables)
			var uri, local, prefix string
			if p.features.Namespaces {
				if n, ok := p.ns.ProcessName(name, true); ok {
					uri, local = n.URI, n.LocalName
				} else {
					local = name
				}
				if idx := strings.IndexByte(name, ':'); idx >= 0 {
					prefix = name[:idx]
				}
			} else {
				local = name
			}
			attrs.Append(&sax.Attribute{
				QName: name, Prefix: prefix, URI: uri, Local: local,
				Value: val, Type: ad.Type.String(), Specified: false,
			})
		}
	}
}

func (p *Parser) applyAttrTypes(elemName string, attrs *sax.Attributes) {
	declared := p.dtdTables.AttlistFor(elemName)
	for i := 0; i < attrs.Len(); i++ {
		a := attrs.Raw(i)
		if ad, ok := declared[a.QName]; ok {
			a.Type = ad.Type.String()
			a.Value = replaceAttrWhitespace(a.Value)
			if ad.Type != dtd.AttrCDATA {
				a.Value = collapseAttrWhitespace(a.Value)
			}
		}
	}
}

// replaceAttrWhitespace maps tab/newline/carriage-return to a plain
// space. It applies to every attribute type, CDATA included.
func replaceAttrWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return ' '
		}
		return r
	}, s)
}

// collapseAttrWhitespace additionally strips leading/trailing space
// and collapses interior runs to a single space. Only non-CDATA
// attribute types get this step.
func collapseAttrWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
