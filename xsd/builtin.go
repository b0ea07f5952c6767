package xsd

// Builtins is the immutable, process-wide built-in XSD datatype
// registry, keyed by local name, loaded from a static configuration of
// name to base-name pairs. It is populated once by init and never
// mutated afterward; callers receive shared, read-only *SimpleType
// handles.
var Builtins map[string]*SimpleType

// lexicalKind names the type-specific lexical check a builtin
// SimpleType runs after facet checks pass.
type lexicalKind int

const (
	lexString lexicalKind = iota
	lexBoolean
	lexDecimal
	lexInteger
	lexFloat
	lexDouble
	lexAnyURI
	lexDateTime
	lexDate
	lexTime
	lexDuration
	lexGYearMonth
	lexGYear
	lexGMonthDay
	lexGDay
	lexGMonth
	lexHexBinary
	lexBase64Binary
	lexQName
	lexNMToken
	lexName
	lexNCName
	lexLanguage
	lexAnyType // no lexical constraint beyond being text
)

// builtinKinds maps every built-in local name to the lexical check it
// runs, independent of its base-type chain.
var builtinKinds map[string]lexicalKind

// builtinSpec is one row of the static name->base table.
type builtinSpec struct {
	name string
	base string // "" for anySimpleType itself
	kind lexicalKind
}

// The hierarchy below is the standard XSD Part 2 built-in datatype
// tree, flattened to the derivation chain each type needs to walk for
// facet inheritance.
var builtinTable = []builtinSpec{
	{"anySimpleType", "", lexAnyType},
	{"string", "anySimpleType", lexString},
	{"boolean", "anySimpleType", lexBoolean},
	{"decimal", "anySimpleType", lexDecimal},
	{"float", "anySimpleType", lexFloat},
	{"double", "anySimpleType", lexDouble},
	{"duration", "anySimpleType", lexDuration},
	{"dateTime", "anySimpleType", lexDateTime},
	{"time", "anySimpleType", lexTime},
	{"date", "anySimpleType", lexDate},
	{"gYearMonth", "anySimpleType", lexGYearMonth},
	{"gYear", "anySimpleType", lexGYear},
	{"gMonthDay", "anySimpleType", lexGMonthDay},
	{"gDay", "anySimpleType", lexGDay},
	{"gMonth", "anySimpleType", lexGMonth},
	{"hexBinary", "anySimpleType", lexHexBinary},
	{"base64Binary", "anySimpleType", lexBase64Binary},
	{"anyURI", "anySimpleType", lexAnyURI},
	{"QName", "anySimpleType", lexQName},
	{"NOTATION", "anySimpleType", lexQName},

	{"normalizedString", "string", lexString},
	{"token", "normalizedString", lexString},
	{"language", "token", lexLanguage},
	{"NMTOKEN", "token", lexNMToken},
	{"Name", "token", lexName},
	{"NCName", "Name", lexNCName},
	{"ID", "NCName", lexNCName},
	{"IDREF", "NCName", lexNCName},
	{"ENTITY", "NCName", lexNCName},

	{"integer", "decimal", lexInteger},
	{"nonPositiveInteger", "integer", lexInteger},
	{"negativeInteger", "nonPositiveInteger", lexInteger},
	{"long", "integer", lexInteger},
	{"int", "long", lexInteger},
	{"short", "int", lexInteger},
	{"byte", "short", lexInteger},
	{"nonNegativeInteger", "integer", lexInteger},
	{"unsignedLong", "nonNegativeInteger", lexInteger},
	{"unsignedInt", "unsignedLong", lexInteger},
	{"unsignedShort", "unsignedInt", lexInteger},
	{"unsignedByte", "unsignedShort", lexInteger},
	{"positiveInteger", "nonNegativeInteger", lexInteger},
}

// builtinListTable names the built-in LIST-variety types (derived over
// an item type rather than an atomic base).
var builtinListTable = map[string]string{
	"NMTOKENS": "NMTOKEN",
	"IDREFS":   "IDREF",
	"ENTITIES": "ENTITY",
}

func init() {
	Builtins = make(map[string]*SimpleType, len(builtinTable)+len(builtinListTable))
	builtinKinds = make(map[string]lexicalKind, len(builtinTable))
	for _, spec := range builtinTable {
		builtinKinds[spec.name] = spec.kind
		Builtins[spec.name] = &SimpleType{
			Name:    QName{URI: XMLSchemaNS, Local: spec.name},
			Variety: VarietyAtomic,
			Builtin: true,
		}
	}
	for _, spec := range builtinTable {
		if spec.base == "" {
			continue
		}
		Builtins[spec.name].Base = Builtins[spec.base]
	}
	for name, item := range builtinListTable {
		Builtins[name] = &SimpleType{
			Name:     QName{URI: XMLSchemaNS, Local: name},
			Variety:  VarietyList,
			ItemType: Builtins[item],
			Builtin:  true,
		}
	}
}

// BuiltinKindOf reports the lexical check a built-in atomic type (or
// the nearest built-in ancestor of a user-defined type) runs.
func BuiltinKindOf(t Type) lexicalKind {
	name := BuiltinNameOf(t)
	if name == "" {
		return lexString
	}
	if k, ok := builtinKinds[name]; ok {
		return k
	}
	return lexString
}

// BuiltinNameOf walks a type's base chain to the nearest built-in
// ancestor and returns its local name (e.g. "ID", "IDREF", "integer"),
// or "" if none of its ancestors is a built-in. Used both for lexical
// dispatch and for identifying ID/IDREF/IDREFS/ENTITY-derived types
// during attribute validation, the same ID/IDREF closure the DTD
// validator checks, lifted to the XSD validator.
func BuiltinNameOf(t Type) string {
	for cur := t; cur != nil; {
		st, ok := cur.(*SimpleType)
		if !ok {
			return ""
		}
		if st.Builtin {
			return st.Name.Local
		}
		cur = st.Base
	}
	return ""
}
