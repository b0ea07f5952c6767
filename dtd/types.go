// Package dtd implements the DTD subsystem: declaration parsing and
// content-model/attribute/ID validation.
package dtd

import "strings"

// AttrType is the declared type of an attribute.
type AttrType int

const (
	AttrInvalid AttrType = iota
	AttrCDATA
	AttrID
	AttrIDRef
	AttrIDRefs
	AttrEntity
	AttrEntities
	AttrNmtoken
	AttrNmtokens
	AttrEnumeration
	AttrNotation
)

func (t AttrType) String() string {
	switch t {
	case AttrCDATA:
		return "CDATA"
	case AttrID:
		return "ID"
	case AttrIDRef:
		return "IDREF"
	case AttrIDRefs:
		return "IDREFS"
	case AttrEntity:
		return "ENTITY"
	case AttrEntities:
		return "ENTITIES"
	case AttrNmtoken:
		return "NMTOKEN"
	case AttrNmtokens:
		return "NMTOKENS"
	case AttrEnumeration:
		return "ENUMERATION"
	case AttrNotation:
		return "NOTATION"
	default:
		return "INVALID"
	}
}

// AttrMode is the default-value mode of an attribute declaration.
type AttrMode int

const (
	ModeNone AttrMode = iota
	ModeRequired
	ModeImplied
	ModeFixed
	ModeDefaulted
)

func (m AttrMode) String() string {
	switch m {
	case ModeRequired:
		return "#REQUIRED"
	case ModeImplied:
		return "#IMPLIED"
	case ModeFixed:
		return "#FIXED"
	default:
		return ""
	}
}

// ValueFragment is one piece of a default/fixed attribute value: either
// literal text, or a placeholder for a general-entity reference that
// is resolved when the default is actually applied.
type ValueFragment struct {
	Literal string
	EntRef  string // non-empty means this fragment is "&EntRef;"
}

// AttributeDecl is one <!ATTLIST> entry.
type AttributeDecl struct {
	Element  string
	Name     string
	Type     AttrType
	Enum     []string // allowed enumeration / NOTATION names
	Mode     AttrMode
	Default  []ValueFragment
}

// ElementTypeVal is the content-model kind of an <!ELEMENT> declaration.
type ElementTypeVal int

const (
	UndefinedElementType ElementTypeVal = iota
	EmptyElementType
	AnyElementType
	MixedElementType
	ChildrenElementType
)

// ElementContentType tags a content-model particle node.
type ElementContentType int

const (
	ContentPCDATA ElementContentType = iota + 1
	ContentElement
	ContentSeq
	ContentOr
)

// ElementContentOccur is the repetition suffix on a particle.
type ElementContentOccur int

const (
	OccurOnce ElementContentOccur = iota + 1
	OccurOpt       // ?
	OccurMult      // *
	OccurPlus      // +
)

// ElementContent is one node of the content-model tree: EMPTY, ANY,
// MIXED(name-set, repeatable), or a CHILDREN expression built from
// Seq/Choice/ElementName nodes.
type ElementContent struct {
	Type   ElementContentType
	Occur  ElementContentOccur
	Name   string // ContentElement
	Names  []string // ContentPCDATA mixed-content name set
	Children []*ElementContent // ContentSeq / ContentOr
}

// ElementDecl is one <!ELEMENT> entry.
type ElementDecl struct {
	Name    string
	Kind    ElementTypeVal
	Content *ElementContent
}

// ModelString reconstructs the declared content-spec text (the "model"
// argument of DeclHandler.ElementDecl), e.g. "EMPTY", "ANY",
// "(#PCDATA|a|b)*", or "(a,b?,c*)".
func (e *ElementDecl) ModelString() string {
	switch e.Kind {
	case EmptyElementType:
		return "EMPTY"
	case AnyElementType:
		return "ANY"
	default:
		return e.Content.String()
	}
}

func (c *ElementContent) String() string {
	if c == nil {
		return ""
	}
	var s string
	switch c.Type {
	case ContentPCDATA:
		if len(c.Names) == 0 {
			return "(#PCDATA)"
		}
		s = "(#PCDATA|" + strings.Join(c.Names, "|") + ")"
	case ContentElement:
		s = c.Name
	case ContentSeq:
		s = "(" + joinContent(c.Children, ",") + ")"
	case ContentOr:
		s = "(" + joinContent(c.Children, "|") + ")"
	}
	return s + occurSuffix(c.Occur)
}

func joinContent(children []*ElementContent, sep string) string {
	parts := make([]string, len(children))
	for i, ch := range children {
		parts[i] = ch.String()
	}
	return strings.Join(parts, sep)
}

func occurSuffix(o ElementContentOccur) string {
	switch o {
	case OccurOpt:
		return "?"
	case OccurMult:
		return "*"
	case OccurPlus:
		return "+"
	default:
		return ""
	}
}

// EntityType distinguishes internal/external, parsed/unparsed, and
// general/parameter entities.
type EntityType int

const (
	InternalGeneralEntity EntityType = iota + 1
	ExternalGeneralParsedEntity
	ExternalGeneralUnparsedEntity
	InternalParameterEntity
	ExternalParameterEntity
)

// EntityDecl is one <!ENTITY> entry.
type EntityDecl struct {
	Name       string
	Type       EntityType
	Value      string // internal replacement text
	PublicID   string
	SystemID   string
	Notation   string // set iff ExternalGeneralUnparsedEntity
}

func (e *EntityDecl) Unparsed() bool {
	return e.Type == ExternalGeneralUnparsedEntity
}

func (e *EntityDecl) External() bool {
	switch e.Type {
	case ExternalGeneralParsedEntity, ExternalGeneralUnparsedEntity, ExternalParameterEntity:
		return true
	default:
		return false
	}
}

// NotationDecl is one <!NOTATION> entry.
type NotationDecl struct {
	Name     string
	PublicID string
	SystemID string
}

// DeclTables holds the element, attlist, and notation declaration
// tables, plus the two entity namespaces (general and parameter).
type DeclTables struct {
	Elements   map[string]*ElementDecl
	Attlists   map[string]map[string]*AttributeDecl // element -> attr name -> decl
	GeneralEnt map[string]*EntityDecl
	ParamEnt   map[string]*EntityDecl
	Notations  map[string]*NotationDecl
}

// NewDeclTables returns empty, ready-to-populate tables.
func NewDeclTables() *DeclTables {
	return &DeclTables{
		Elements:   make(map[string]*ElementDecl),
		Attlists:   make(map[string]map[string]*AttributeDecl),
		GeneralEnt: make(map[string]*EntityDecl),
		ParamEnt:   make(map[string]*EntityDecl),
		Notations:  make(map[string]*NotationDecl),
	}
}

// AttlistFor returns the attribute declarations for element keyed by
// attribute name, or nil if none were declared. The map does not
// record declaration order.
func (d *DeclTables) AttlistFor(element string) map[string]*AttributeDecl {
	return d.Attlists[element]
}

// AddAttribute records an attribute declaration, ignoring a later
// redeclaration of the same {element, attribute} pair per the XML spec
// ("the first declaration is binding; later declarations are ignored").
func (d *DeclTables) AddAttribute(decl *AttributeDecl) {
	m, ok := d.Attlists[decl.Element]
	if !ok {
		m = make(map[string]*AttributeDecl)
		d.Attlists[decl.Element] = m
	}
	if _, exists := m[decl.Name]; exists {
		return
	}
	m[decl.Name] = decl
}
