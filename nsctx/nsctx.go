// Package nsctx implements the namespace tracker: a stack of
// per-element scopes mapping prefix to URI, with xml/xmlns pre-bound.
package nsctx

const (
	XMLURI   = "http://www.w3.org/XML/1998/namespace"
	XMLNSURI = "http://www.w3.org/2000/xmlns/"
)

type scope struct {
	bindings map[string]string
}

// Tracker is a stack of namespace scopes. The zero value is an empty
// tracker, the same as New returns.
type Tracker struct {
	scopes []scope
}

// New returns a Tracker with the built-in xml/xmlns bindings visible
// at every depth.
func New() *Tracker {
	return &Tracker{}
}

// PushContext begins a new element scope.
func (t *Tracker) PushContext() {
	t.scopes = append(t.scopes, scope{})
}

// PopContext discards the innermost scope. Called without a matching
// prior PushContext, it does nothing and returns false.
func (t *Tracker) PopContext() bool {
	if len(t.scopes) == 0 {
		return false
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
	return true
}

// Depth reports how many scopes are currently pushed.
func (t *Tracker) Depth() int { return len(t.scopes) }

// DeclarePrefix records prefix -> uri in the current (innermost)
// scope. uri == "" undeclares the prefix within this scope (XML
// Namespaces 1.1), which is distinct from it never having been bound:
// GetURI will return ("", true) for an explicitly undeclared prefix
// at this scope rather than falling through to an outer scope... per
// XML Namespaces 1.1, declaring xmlns="" undoes a default-namespace
// declaration from an enclosing scope, so lookups must stop at the
// undeclaring scope rather than continuing outward.
func (t *Tracker) DeclarePrefix(prefix, uri string) {
	if len(t.scopes) == 0 {
		t.PushContext()
	}
	cur := &t.scopes[len(t.scopes)-1]
	if cur.bindings == nil {
		cur.bindings = make(map[string]string, 2)
	}
	cur.bindings[prefix] = uri
}

// GetURI walks from the innermost scope outward and returns the first
// binding found. Built-in bindings for "xml" and "xmlns" are always
// present. Returns ("", false) if prefix is unbound anywhere.
func (t *Tracker) GetURI(prefix string) (string, bool) {
	switch prefix {
	case "xml":
		if u, ok := t.lookup("xml"); ok {
			return u, true
		}
		return XMLURI, true
	case "xmlns":
		return XMLNSURI, true
	}
	return t.lookup(prefix)
}

func (t *Tracker) lookup(prefix string) (string, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if u, ok := t.scopes[i].bindings[prefix]; ok {
			return u, true
		}
	}
	return "", false
}

// Name is the result of resolving a qualified name against the
// current scope.
type Name struct {
	URI       string
	LocalName string
	QName     string
}

// ProcessName splits qName at the first ':' and resolves the prefix.
// For elements, an unprefixed name uses the default namespace, if any.
// For attributes, an unprefixed name always resolves to an empty URI
// per the XML Namespaces spec ("default namespace does not apply to
// attribute names"). ok is false only when qName carries a prefix
// that is not bound in any visible scope (UnboundPrefix).
func (t *Tracker) ProcessName(qName string, isAttribute bool) (Name, bool) {
	for i := 0; i < len(qName); i++ {
		if qName[i] == ':' {
			prefix := qName[:i]
			local := qName[i+1:]
			uri, ok := t.GetURI(prefix)
			if !ok {
				return Name{}, false
			}
			return Name{URI: uri, LocalName: local, QName: qName}, true
		}
	}
	if isAttribute {
		return Name{URI: "", LocalName: qName, QName: qName}, true
	}
	uri, _ := t.GetURI("")
	return Name{URI: uri, LocalName: qName, QName: qName}, true
}
