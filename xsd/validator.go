package xsd

import (
	"strings"

	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"
	"github.com/cpkb-bluezoo/gonzalez-sub009/nsctx"
	"github.com/cpkb-bluezoo/gonzalez-sub009/sax"
)

// Validator is the validating sax.ContentHandler filter: it sits
// between the content parser and a downstream handler, resolving each
// element against the schema, validating attributes and text against
// simple types and facets, driving a ContentState per open element,
// tracking ID/IDREF closure, and recording PSVI typed values, then
// forwards every event to Next unchanged. It is the same decorator
// shape dtd.Validator uses for DTD checking, here as a full
// ContentHandler rather than plain method calls, since XSD validation
// needs prefix-to-URI resolution of xsi:type values that only a
// namespace-aware filter can do.
type Validator struct {
	Schema *Schema
	Next   sax.ContentHandler
	Errors sax.ErrorHandler

	ns  *nsctx.Tracker
	loc sax.DocumentLocator

	stack []*elementFrame

	ids    map[string]xerr.Loc
	idrefs map[string]xerr.Loc

	PSVI []PSVIEntry
}

// PSVIEntry records one element's post-schema-validation typed value,
// for elements with simple or simple content.
type PSVIEntry struct {
	Name  QName
	Value TypedValue
}

type elementFrame struct {
	name    QName
	typ     Type
	decl    *ElementDecl
	content *ContentState
	text    strings.Builder
	nilled  bool
}

// NewValidator returns a Validator checking against schema. Next and
// Errors may be nil; a nil Next makes the filter validate-only.
func NewValidator(schema *Schema, next sax.ContentHandler, errs sax.ErrorHandler) *Validator {
	return &Validator{
		Schema: schema,
		Next:   next,
		Errors: errs,
		ns:     nsctx.New(),
		ids:    make(map[string]xerr.Loc),
		idrefs: make(map[string]xerr.Loc),
	}
}

func (v *Validator) SetDocumentLocator(ctx sax.Context, loc sax.DocumentLocator) error {
	v.loc = loc
	if v.Next != nil {
		return v.Next.SetDocumentLocator(ctx, loc)
	}
	return nil
}

func (v *Validator) StartDocument(ctx sax.Context) error {
	if v.Next != nil {
		return v.Next.StartDocument(ctx)
	}
	return nil
}

func (v *Validator) EndDocument(ctx sax.Context) error {
	for ref, loc := range v.idrefs {
		if _, ok := v.ids[ref]; !ok {
			v.report(loc, xerr.CodeUnresolvedIDREF, "IDREF %q does not match any ID in the document", ref)
		}
	}
	if v.Next != nil {
		return v.Next.EndDocument(ctx)
	}
	return nil
}

func (v *Validator) StartPrefixMapping(ctx sax.Context, prefix, uri string) error {
	v.ns.DeclarePrefix(prefix, uri)
	if v.Next != nil {
		return v.Next.StartPrefixMapping(ctx, prefix, uri)
	}
	return nil
}

func (v *Validator) EndPrefixMapping(ctx sax.Context, prefix string) error {
	if v.Next != nil {
		return v.Next.EndPrefixMapping(ctx, prefix)
	}
	return nil
}

func (v *Validator) StartElement(ctx sax.Context, elem sax.ParsedElement) error {
	v.ns.PushContext()

	name := QName{URI: elem.URI(), Local: elem.LocalName()}

	var parent *elementFrame
	if len(v.stack) > 0 {
		parent = v.stack[len(v.stack)-1]
	}

	decl := v.resolveDecl(parent, name)
	typ := v.effectiveType(elem, decl, name)

	if parent != nil {
		if parent.content != nil && !parent.content.Advance(name.URI, name.Local) {
			v.report(v.locSnap(), xerr.CodeElementNotAllowed, "element %q not allowed here", elem.QName())
		}
	}

	frame := &elementFrame{name: name, typ: typ, decl: decl}

	nilAttr := elem.Attributes().ByName(XMLSchemaInstanceNS, "nil")
	if nilAttr != nil && (nilAttr.Value() == "true" || nilAttr.Value() == "1") {
		if decl != nil && !decl.Nillable {
			v.report(v.locSnap(), xerr.CodeNillableViolation, "element %q is not nillable", elem.QName())
		}
		frame.nilled = true
	}

	if ct, ok := typ.(*ComplexType); ok {
		v.validateAttributes(elem, ct)
		if !frame.nilled {
			frame.content = NewContentState(ct.Particle, v.Schema.TargetNamespace)
		}
	}

	v.stack = append(v.stack, frame)

	if v.Next != nil {
		return v.Next.StartElement(ctx, elem)
	}
	return nil
}

func (v *Validator) EndElement(ctx sax.Context, elem sax.ParsedElement) error {
	if len(v.stack) == 0 {
		v.ns.PopContext()
		if v.Next != nil {
			return v.Next.EndElement(ctx, elem)
		}
		return nil
	}
	top := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]

	if !top.nilled {
		switch t := top.typ.(type) {
		case *SimpleType:
			if tv, err := ValidateSimpleType(t, top.text.String()); err != nil {
				v.report(v.locSnap(), xerr.CodeFacetViolation, "%s", err.Error())
			} else {
				v.PSVI = append(v.PSVI, PSVIEntry{Name: top.name, Value: tv})
			}
		case *ComplexType:
			if t.Content == ContentSimple {
				if st, ok := t.SimpleBase.(*SimpleType); ok {
					if tv, err := ValidateSimpleType(st, top.text.String()); err != nil {
						v.report(v.locSnap(), xerr.CodeFacetViolation, "%s", err.Error())
					} else {
						v.PSVI = append(v.PSVI, PSVIEntry{Name: top.name, Value: tv})
					}
				}
			}
			if top.content != nil && !top.content.Accepting() {
				v.report(v.locSnap(), xerr.CodeRequiredContentMissed, "element %q ended before its content model was satisfied", elem.QName())
			}
		}
	}

	v.ns.PopContext()
	if v.Next != nil {
		return v.Next.EndElement(ctx, elem)
	}
	return nil
}

func (v *Validator) Characters(ctx sax.Context, text []byte) error {
	if len(v.stack) > 0 {
		top := v.stack[len(v.stack)-1]
		if top.nilled && len(strings.TrimSpace(string(text))) > 0 {
			v.report(v.locSnap(), xerr.CodeNillableViolation, "nilled element %q has content", top.name.Local)
		}
		if ct, ok := top.typ.(*ComplexType); ok && ct.Content == ContentElementOnly {
			if len(strings.TrimSpace(string(text))) > 0 {
				v.report(v.locSnap(), xerr.CodeElementNotAllowed, "element-only content type for %q cannot contain character data", top.name.Local)
			}
		}
		top.text.Write(text)
	}
	if v.Next != nil {
		return v.Next.Characters(ctx, text)
	}
	return nil
}

func (v *Validator) IgnorableWhitespace(ctx sax.Context, text []byte) error {
	if v.Next != nil {
		return v.Next.IgnorableWhitespace(ctx, text)
	}
	return nil
}

func (v *Validator) ProcessingInstruction(ctx sax.Context, target, data string) error {
	if v.Next != nil {
		return v.Next.ProcessingInstruction(ctx, target, data)
	}
	return nil
}

func (v *Validator) SkippedEntity(ctx sax.Context, name string) error {
	if v.Next != nil {
		return v.Next.SkippedEntity(ctx, name)
	}
	return nil
}

// resolveDecl finds the element declaration for name: a global lookup
// at the document root, or a local-child lookup within the parent's
// complex type otherwise.
func (v *Validator) resolveDecl(parent *elementFrame, name QName) *ElementDecl {
	if parent == nil {
		return v.Schema.ResolveElement(name)
	}
	ct, ok := parent.typ.(*ComplexType)
	if !ok || ct.Particle == nil {
		return v.Schema.ResolveElement(name)
	}
	if d := findParticleElement(ct.Particle, name); d != nil {
		return d
	}
	return v.Schema.ResolveElement(name)
}

func findParticleElement(p *Particle, name QName) *ElementDecl {
	switch p.Kind {
	case ParticleElement:
		if p.Element != nil && p.Element.Name == name {
			return p.Element
		}
	default:
		for _, c := range p.Children {
			if d := findParticleElement(c, name); d != nil {
				return d
			}
		}
	}
	return nil
}

// effectiveType applies an xsi:type override: the override is only
// accepted when the named type is substitutable for the declared type
// (here, simplified to identity-or-derived-by walking the base
// chain); a rejected override is reported but parsing continues with
// the declared type (Open Question 1: logs but proceeds).
func (v *Validator) effectiveType(elem sax.ParsedElement, decl *ElementDecl, name QName) Type {
	var declared Type
	if decl != nil {
		declared = decl.Type
	}

	xsiType := elem.Attributes().ByName(XMLSchemaInstanceNS, "type")
	if xsiType == nil {
		return declared
	}

	resolved, ok := v.ns.ProcessName(xsiType.Value(), false)
	if !ok {
		v.report(v.locSnap(), xerr.CodeTypeNotSubstitutable, "xsi:type %q on %q uses an unbound prefix", xsiType.Value(), name.Local)
		return declared
	}
	override := v.Schema.FindType(QName{URI: resolved.URI, Local: resolved.LocalName})
	if override == nil {
		v.report(v.locSnap(), xerr.CodeTypeNotSubstitutable, "xsi:type %q on %q names an unknown type", xsiType.Value(), name.Local)
		return declared
	}
	if declared != nil && !isDerivedFrom(override, declared) {
		v.report(v.locSnap(), xerr.CodeTypeNotSubstitutable, "xsi:type %q is not substitutable for the declared type of %q", xsiType.Value(), name.Local)
		return declared
	}
	return override
}

func isDerivedFrom(t, base Type) bool {
	for cur := t; cur != nil; {
		if cur.TypeName() == base.TypeName() {
			return true
		}
		switch c := cur.(type) {
		case *SimpleType:
			cur = c.Base
		case *ComplexType:
			cur = c.Base
		default:
			return false
		}
	}
	return false
}

// validateAttributes checks present attributes against ct.Attributes
// (including inherited, via the base chain) and reports any required
// attribute that is missing, any value failing its type's facets, and
// any attribute that is neither declared nor allowed by an
// anyAttribute wildcard (xmlns declarations are not checked).
func (v *Validator) validateAttributes(elem sax.ParsedElement, ct *ComplexType) {
	expected := effectiveAttributes(ct)

	attrs := elem.Attributes()
	seen := make(map[QName]bool, attrs.Len())
	for i := 0; i < attrs.Len(); i++ {
		a := attrs.At(i)
		if a.URI() == XMLSchemaInstanceNS {
			continue
		}
		aname := QName{URI: a.URI(), Local: a.LocalName()}
		seen[aname] = true
		ad, ok := expected[aname]
		if !ok {
			if w := effectiveAnyAttribute(ct); w != nil && matchesWildcardNamespace(a.URI(), w.Namespace, v.Schema.TargetNamespace) {
				continue
			}
			if q := a.QName(); q == "xmlns" || strings.HasPrefix(q, "xmlns:") {
				continue
			}
			v.report(v.locSnap(), xerr.CodeAttrTypeMismatch, "attribute %q is not declared for this element", a.QName())
			continue
		}
		if ad.Use == UseProhibited {
			v.report(v.locSnap(), xerr.CodeAttrTypeMismatch, "attribute %q is prohibited on this element", a.QName())
			continue
		}
		if st, ok := ad.Type.(*SimpleType); ok {
			if _, err := ValidateSimpleType(st, a.Value()); err != nil {
				v.report(v.locSnap(), xerr.CodeFacetViolation, "attribute %q: %s", a.QName(), err.Error())
			}
			v.trackIDRef(st, a.Value())
		}
		if ad.Fixed != "" && a.Value() != ad.Fixed {
			v.report(v.locSnap(), xerr.CodeFixedMismatch, "attribute %q does not match its fixed value %q", a.QName(), ad.Fixed)
		}
	}

	for qn, ad := range expected {
		if ad.Use == UseRequired && !seen[qn] {
			v.report(v.locSnap(), xerr.CodeMissingRequiredAttr, "required attribute %q missing", qn.Local)
		}
	}
}

func effectiveAttributes(ct *ComplexType) map[QName]*AttributeDecl {
	merged := make(map[QName]*AttributeDecl)
	for cur := ct; cur != nil; {
		for qn, ad := range cur.Attributes {
			if _, ok := merged[qn]; !ok {
				merged[qn] = ad
			}
		}
		base, ok := cur.Base.(*ComplexType)
		if !ok {
			break
		}
		cur = base
	}
	return merged
}

func effectiveAnyAttribute(ct *ComplexType) *AnyAttribute {
	for cur := ct; cur != nil; {
		if cur.AnyAttr != nil {
			return cur.AnyAttr
		}
		base, ok := cur.Base.(*ComplexType)
		if !ok {
			return nil
		}
		cur = base
	}
	return nil
}

// trackIDRef records ID/IDREF/IDREFS-typed attribute values for the
// end-of-document closure check.
func (v *Validator) trackIDRef(t *SimpleType, value string) {
	loc := v.locSnap()
	switch BuiltinNameOf(t) {
	case "ID":
		if _, dup := v.ids[value]; dup {
			v.report(loc, xerr.CodeDuplicateID, "duplicate ID value %q", value)
		}
		v.ids[value] = loc
	case "IDREF":
		v.idrefs[value] = loc
	case "IDREFS":
		for _, tok := range strings.Fields(value) {
			v.idrefs[tok] = loc
		}
	}
}

func (v *Validator) locSnap() xerr.Loc {
	if v.loc == nil {
		return xerr.Loc{}
	}
	return v.loc.Snapshot()
}

func (v *Validator) report(loc xerr.Loc, code, format string, args ...interface{}) {
	if v.Errors == nil {
		return
	}
	v.Errors.Error(nil, xerr.Errorf(loc, code, format, args...))
}
