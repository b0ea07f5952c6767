// Package xsd implements the XSD subsystem: a schema model (types,
// particles, elements/attributes), a particle-state content-model
// validator, a simple-type/facet validator, and a validating
// sax.ContentHandler filter that layers XSD validation and PSVI
// typed-value production onto the same event stream the DTD validator
// observes.
//
// The schema model (a tagged Type union, Element/Attribute structs, a
// Schema holding named-type maps) and the validator event-filter
// shape (a struct holding the schema plus id/idref maps plus a
// violations slice) are both adapted from DOM-oriented originals to
// this package's streaming, push-event model.
package xsd

// Variety is the kind of a SimpleType.
type Variety int

const (
	VarietyAtomic Variety = iota + 1
	VarietyList
	VarietyUnion
)

// ContentKind is the content-type classification of a ComplexType.
type ContentKind int

const (
	ContentEmpty ContentKind = iota + 1
	ContentSimple
	ContentMixed
	ContentElementOnly
)

// ParticleKind tags one node of a content-model particle tree.
type ParticleKind int

const (
	ParticleElement ParticleKind = iota + 1
	ParticleSequence
	ParticleChoice
	ParticleAll
	ParticleAny
)

// Unbounded is the sentinel maxOccurs value meaning "no upper bound".
const Unbounded = -1

// ProcessContents controls how strictly an ANY wildcard's matched
// content must validate.
type ProcessContents int

const (
	ProcessStrict ProcessContents = iota
	ProcessLax
	ProcessSkip
)

// QName is a namespace-qualified name, the key type for every map in
// Schema: target namespace plus maps of global
// elements/attributes/types.
type QName struct {
	URI   string
	Local string
}

// Type is either a *SimpleType or a *ComplexType. Kept as a tagged
// interface, a variant over base classes, rather than an open
// hierarchy.
type Type interface {
	isXSDType()
	TypeName() QName
}

// SimpleType is a type with no element/attribute content: an atomic
// type restricting a built-in, a whitespace-delimited list of an item
// type, or a union trying each member type in order.
type SimpleType struct {
	Name      QName
	Base      Type // nil for a built-in primitive
	Variety   Variety
	ItemType  Type     // VarietyList
	Members   []Type   // VarietyUnion, tried in declaration order
	Facets    Facets
	Builtin   bool
}

func (*SimpleType) isXSDType()      {}
func (t *SimpleType) TypeName() QName { return t.Name }

// ComplexType has an attribute map, an ordered particle list, and a
// content-type classification.
type ComplexType struct {
	Name        QName
	Base        Type
	Content     ContentKind
	Particle    *Particle // root particle (SEQUENCE/CHOICE/ALL), nil if ContentEmpty or ContentSimple
	SimpleBase  Type      // ContentSimple: the simple type governing text content
	Attributes  map[QName]*AttributeDecl
	AnyAttr     *AnyAttribute
	Abstract    bool
}

func (*ComplexType) isXSDType()      {}
func (t *ComplexType) TypeName() QName { return t.Name }

// AnyAttribute is an attribute wildcard (xs:anyAttribute).
type AnyAttribute struct {
	Namespace       string // "##any", "##other", "##local", "##targetNamespace", or a space-separated URI list
	ProcessContents ProcessContents
}

// Particle is a tagged content-model node.
type Particle struct {
	Kind      ParticleKind
	MinOccurs int
	MaxOccurs int // Unbounded for no limit

	Element  *ElementDecl // ParticleElement
	Children []*Particle  // Sequence/Choice/All

	// ParticleAny
	AnyNamespace       string
	AnyProcessContents ProcessContents
}

// ElementDecl is a global or local element declaration: name, target
// namespace, and type, among other facets.
type ElementDecl struct {
	Name     QName
	Type     Type
	TypeName QName // used before the post-parse resolution pass fills Type
	Nillable bool
	Abstract bool
	Default  string
	Fixed    string
	Wildcard bool // stands in for an ANY-matched element with no declaration
}

// AttributeDecl is a global or local attribute declaration.
type AttributeDecl struct {
	Name     QName
	Type     Type
	TypeName QName
	Use      AttrUse
	Default  string
	Fixed    string
}

// AttrUse is the xs:attribute `use` value.
type AttrUse int

const (
	UseOptional AttrUse = iota
	UseRequired
	UseProhibited
)

// Schema is the decoded form of one or more <xs:schema> documents
// sharing a target namespace.
type Schema struct {
	TargetNamespace string
	Elements        map[QName]*ElementDecl
	Attributes      map[QName]*AttributeDecl
	Types           map[QName]Type
}

// NewSchema returns an empty schema ready for population, typically by
// a schema-document parser (out of scope for this package; callers
// build schemas programmatically or from another source).
func NewSchema(targetNamespace string) *Schema {
	return &Schema{
		TargetNamespace: targetNamespace,
		Elements:        make(map[QName]*ElementDecl),
		Attributes:      make(map[QName]*AttributeDecl),
		Types:           make(map[QName]Type),
	}
}

// FindType looks up a named type, falling back to the built-in
// registry.
func (s *Schema) FindType(name QName) Type {
	if t, ok := s.Types[name]; ok {
		return t
	}
	if name.URI == XMLSchemaNS {
		if t, ok := Builtins[name.Local]; ok {
			return t
		}
	}
	return nil
}

// ResolveElement finds the element declaration for a root or
// any-matched element by qualified name.
func (s *Schema) ResolveElement(name QName) *ElementDecl {
	return s.Elements[name]
}

// XMLSchemaNS and XMLSchemaInstanceNS are the two namespaces assumed
// for schema documents and xsi:* instance attributes.
const (
	XMLSchemaNS         = "http://www.w3.org/2001/XMLSchema"
	XMLSchemaInstanceNS = "http://www.w3.org/2001/XMLSchema-instance"
)
