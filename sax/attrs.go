package sax

// Attribute is the concrete attribute record: a qualified name, its
// resolved {uri, localName}, a normalized value, a DTD-declared type,
// and whether it was present in the source or supplied from a DTD
// default/fixed declaration.
type Attribute struct {
	QName     string
	Prefix    string
	URI       string
	Local     string
	Value     string
	Type      string // CDATA, ID, IDREF, IDREFS, NMTOKEN, NMTOKENS, ENTITY, ENTITIES, NOTATION, or an enumeration literal
	Specified bool
}

// ParsedAttribute is the narrow accessor interface event consumers see.
type ParsedAttribute interface {
	Prefix() string
	URI() string
	LocalName() string
	QName() string
	Value() string
	Type() string
	Specified() bool
}

func (a *Attribute) asParsedAttribute() ParsedAttribute { return attrView{a} }

type attrView struct{ a *Attribute }

func (v attrView) Prefix() string    { return v.a.Prefix }
func (v attrView) URI() string       { return v.a.URI }
func (v attrView) LocalName() string { return v.a.Local }
func (v attrView) QName() string     { return v.a.QName }
func (v attrView) Value() string     { return v.a.Value }
func (v attrView) Type() string      { return v.a.Type }
func (v attrView) Specified() bool   { return v.a.Specified }

// Attributes is the ordered attribute-list collection for a single
// start-tag, supporting lookup by qualified name and by resolved
// {uri, localName}.
type Attributes struct {
	list []*Attribute
}

// NewAttributes builds an Attributes collection from raw records. The
// slice is retained, not copied; callers should not mutate it after
// passing it in.
func NewAttributes(attrs []*Attribute) *Attributes {
	return &Attributes{list: attrs}
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.list)
}

// At returns the i'th attribute view, or nil if out of range.
func (a *Attributes) At(i int) ParsedAttribute {
	if a == nil || i < 0 || i >= len(a.list) {
		return nil
	}
	return a.list[i].asParsedAttribute()
}

// Raw returns the i'th attribute record, or nil if out of range. Used
// internally by validators that need to mutate Specified/Type.
func (a *Attributes) Raw(i int) *Attribute {
	if a == nil || i < 0 || i >= len(a.list) {
		return nil
	}
	return a.list[i]
}

// ByQName finds an attribute by its raw qualified name.
func (a *Attributes) ByQName(qname string) ParsedAttribute {
	if a == nil {
		return nil
	}
	for _, at := range a.list {
		if at.QName == qname {
			return at.asParsedAttribute()
		}
	}
	return nil
}

// ByName finds an attribute by its resolved {uri, localName} pair.
func (a *Attributes) ByName(uri, local string) ParsedAttribute {
	if a == nil {
		return nil
	}
	for _, at := range a.list {
		if at.URI == uri && at.Local == local {
			return at.asParsedAttribute()
		}
	}
	return nil
}

// Append adds an attribute record to the collection, as happens when a
// DTD-declared default is applied after explicit attributes have been
// processed.
func (a *Attributes) Append(at *Attribute) {
	a.list = append(a.list, at)
}

// HasDuplicateName reports whether two attributes in the collection
// share the same resolved {uri, localName}.
func (a *Attributes) HasDuplicateName() (qa, qb string, dup bool) {
	seen := make(map[[2]string]string, len(a.list))
	for _, at := range a.list {
		key := [2]string{at.URI, at.Local}
		if prev, ok := seen[key]; ok {
			return prev, at.QName, true
		}
		seen[key] = at.QName
	}
	return "", "", false
}
