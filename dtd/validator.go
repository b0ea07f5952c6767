package dtd

import (
	"strings"

	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/debug"
	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"
)

// Validator checks a document's element/attribute structure against a
// *DeclTables as it streams past, mirroring the way the content parser
// drives events: StartElement/EndElement/Characters calls bracket each
// element, and Finish reports any IDREF that never resolved (ID/IDREF
// consistency is only checkable once the whole document has streamed
// past).
type Validator struct {
	tables *DeclTables

	ids      map[string]bool
	idrefs   map[string]xerr.Loc
	elements []*elementFrame
}

type elementFrame struct {
	name       string
	decl       *ElementDecl
	state      contentState
	sawElement bool
	sawText    bool
}

// NewValidator returns a Validator checking against tables.
func NewValidator(tables *DeclTables) *Validator {
	return &Validator{
		tables: tables,
		ids:    make(map[string]bool),
		idrefs: make(map[string]xerr.Loc),
	}
}

// StartElement validates elemName against the content model of its
// parent (if any is declared) and the attribute list against its own
// ATTLIST, returning any recoverable errors. It does not supply
// attribute defaults; the caller applies those via ResolveDefault.
func (v *Validator) StartElement(loc xerr.Loc, elemName string, present map[string]string) ([]*xerr.Error, error) {
	if debug.Enabled {
		g := debug.IPrintf("Validator.StartElement(%s)", elemName)
		defer g.Release("Validator.StartElement done")
	}
	var errs []*xerr.Error

	if len(v.elements) > 0 {
		parent := v.elements[len(v.elements)-1]
		parent.sawElement = true
		if parent.decl != nil {
			switch parent.decl.Kind {
			case EmptyElementType:
				errs = append(errs, xerr.Errorf(loc, xerr.CodeContentModelViolation, "element %q declared EMPTY cannot contain child element %q", parent.name, elemName))
			case MixedElementType:
				if !mixedAllows(parent.decl.Content, elemName) {
					errs = append(errs, xerr.Errorf(loc, xerr.CodeContentModelViolation, "element %q not allowed in mixed content of %q", elemName, parent.name))
				}
			case ChildrenElementType:
				ns, ok := advance(parent.state, elemName)
				if !ok {
					errs = append(errs, xerr.Errorf(loc, xerr.CodeContentModelViolation, "element %q not allowed here inside %q", elemName, parent.name))
				} else {
					parent.state = ns
				}
			}
		}
	}

	decl := v.tables.Elements[elemName]
	if decl == nil && v.tables != nil && len(v.tables.Elements) > 0 {
		errs = append(errs, xerr.Errorf(loc, xerr.CodeUndeclaredElement, "element %q used without an <!ELEMENT> declaration", elemName))
	}

	attrDecls := v.tables.AttlistFor(elemName)
	for name, ad := range attrDecls {
		val, ok := present[name]
		if !ok {
			switch ad.Mode {
			case ModeRequired:
				errs = append(errs, xerr.Errorf(loc, xerr.CodeMissingRequiredAttr, "required attribute %q missing on element %q", name, elemName))
			case ModeFixed, ModeDefaulted:
				// caller applies the resolved default separately
			}
			continue
		}
		if ad.Mode == ModeFixed {
			fixed := resolveFragments(ad.Default, v.tables)
			if val != fixed {
				errs = append(errs, xerr.Errorf(loc, xerr.CodeFixedMismatch, "attribute %q on %q does not match its #FIXED value", name, elemName))
			}
		}
		if e := v.checkAttrType(loc, elemName, name, val, ad); e != nil {
			errs = append(errs, e)
		}
	}
	for name := range present {
		if _, declared := attrDecls[name]; !declared && attrDecls != nil {
			// Undeclared attribute on a known element: recoverable, not
			// fatal.
		}
	}

	var state contentState
	if decl != nil && decl.Kind == ChildrenElementType {
		state = newContentState(decl.Content)
	}
	v.elements = append(v.elements, &elementFrame{name: elemName, decl: decl, state: state})
	return errs, nil
}

// Characters records non-whitespace text for EMPTY/CHILDREN content
// model checking at EndElement.
func (v *Validator) Characters(nonWhitespace bool) {
	if len(v.elements) == 0 {
		return
	}
	if nonWhitespace {
		v.elements[len(v.elements)-1].sawText = true
	}
}

// EndElement finishes validating the element's content model (e.g.
// that a CHILDREN model reached an accepting state) and pops the
// element stack.
func (v *Validator) EndElement(loc xerr.Loc, elemName string) []*xerr.Error {
	if debug.Enabled {
		g := debug.IPrintf("Validator.EndElement(%s)", elemName)
		defer g.Release("Validator.EndElement done")
	}
	if len(v.elements) == 0 {
		return nil
	}
	top := v.elements[len(v.elements)-1]
	v.elements = v.elements[:len(v.elements)-1]

	var errs []*xerr.Error
	if top.decl != nil {
		switch top.decl.Kind {
		case EmptyElementType:
			if top.sawText {
				errs = append(errs, xerr.Errorf(loc, xerr.CodeContentModelViolation, "element %q declared EMPTY contains character data", elemName))
			}
		case ChildrenElementType:
			if top.sawText {
				errs = append(errs, xerr.Errorf(loc, xerr.CodeContentModelViolation, "element %q has element-only content but contains non-whitespace text", elemName))
			}
			if !accepting(top.state) {
				errs = append(errs, xerr.Errorf(loc, xerr.CodeContentModelViolation, "element %q ended before its content model was satisfied", elemName))
			}
		}
	}
	return errs
}

// Finish reports any IDREF/IDREFS value that never matched a declared
// ID, once the whole document has been seen.
func (v *Validator) Finish() []*xerr.Error {
	var errs []*xerr.Error
	for ref, loc := range v.idrefs {
		if !v.ids[ref] {
			errs = append(errs, xerr.Errorf(loc, xerr.CodeUnresolvedIDREF, "IDREF %q does not match any ID in the document", ref))
		}
	}
	return errs
}

func (v *Validator) checkAttrType(loc xerr.Loc, elem, attr, val string, ad *AttributeDecl) *xerr.Error {
	switch ad.Type {
	case AttrID:
		if v.ids[val] {
			return xerr.Errorf(loc, xerr.CodeDuplicateID, "duplicate ID value %q (attribute %q on %q)", val, attr, elem)
		}
		v.ids[val] = true
	case AttrIDRef:
		v.idrefs[val] = loc
	case AttrIDRefs:
		for _, tok := range strings.Fields(val) {
			v.idrefs[tok] = loc
		}
	case AttrNotation:
		if !containsStr(ad.Enum, val) {
			return xerr.Errorf(loc, xerr.CodeAttrTypeMismatch, "value %q for NOTATION attribute %q on %q is not one of its declared notations", val, attr, elem)
		}
		if _, ok := v.tables.Notations[val]; !ok {
			return xerr.Errorf(loc, xerr.CodeUndeclaredNotation, "NOTATION value %q names an undeclared notation", val)
		}
	case AttrEnumeration:
		if !containsStr(ad.Enum, val) {
			return xerr.Errorf(loc, xerr.CodeAttrTypeMismatch, "value %q for attribute %q on %q is not one of its enumerated values", val, attr, elem)
		}
	case AttrNmtoken:
		if !isNmtoken(val) {
			return xerr.Errorf(loc, xerr.CodeAttrTypeMismatch, "value %q for NMTOKEN attribute %q on %q is not a valid Nmtoken", val, attr, elem)
		}
	case AttrNmtokens:
		for _, tok := range strings.Fields(val) {
			if !isNmtoken(tok) {
				return xerr.Errorf(loc, xerr.CodeAttrTypeMismatch, "value %q for NMTOKENS attribute %q on %q contains an invalid Nmtoken", tok, attr, elem)
			}
		}
	case AttrEntity:
		if e, ok := v.tables.GeneralEnt[val]; !ok || !e.Unparsed() {
			return xerr.Errorf(loc, xerr.CodeAttrTypeMismatch, "value %q for ENTITY attribute %q on %q does not name a declared unparsed entity", val, attr, elem)
		}
	case AttrEntities:
		for _, tok := range strings.Fields(val) {
			if e, ok := v.tables.GeneralEnt[tok]; !ok || !e.Unparsed() {
				return xerr.Errorf(loc, xerr.CodeAttrTypeMismatch, "value %q for ENTITIES attribute %q on %q does not name a declared unparsed entity", tok, attr, elem)
			}
		}
	}
	return nil
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func isNmtoken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isNameChar(r) {
			return false
		}
	}
	return true
}

func isNameChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '-' || r == '_' || r == ':':
		return true
	default:
		return r > 0x7f
	}
}

// ResolveDefault stitches an attribute declaration's #FIXED/default
// value fragments into the literal text to apply when the attribute is
// absent from a start-tag.
func ResolveDefault(ad *AttributeDecl, tables *DeclTables) string {
	return resolveFragments(ad.Default, tables)
}

// resolveFragments stitches a #FIXED/default value's fragments back
// into a literal string, resolving "&name;" pieces against the
// general-entity table. Nesting is cut off past a depth of 64, so a
// cycle yields the text gathered up to that depth rather than looping
// forever.
func resolveFragments(frags []ValueFragment, tables *DeclTables) string {
	var b strings.Builder
	resolveFragmentsInto(&b, frags, tables, 0)
	return b.String()
}

func resolveFragmentsInto(b *strings.Builder, frags []ValueFragment, tables *DeclTables, depth int) {
	if depth > 64 {
		return
	}
	for _, f := range frags {
		if f.EntRef == "" {
			b.WriteString(f.Literal)
			continue
		}
		ent, ok := tables.GeneralEnt[f.EntRef]
		if !ok || ent.External() {
			continue
		}
		resolveFragmentsInto(b, splitValueFragments(ent.Value), tables, depth+1)
	}
}
