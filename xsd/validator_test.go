package xsd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"
	"github.com/cpkb-bluezoo/gonzalez-sub009/sax"
)

const testNS = "urn:test"

func buildTestSchema() *Schema {
	s := NewSchema(testNS)

	childType := Builtins["string"]
	childDecl := &ElementDecl{Name: QName{URI: testNS, Local: "child"}, Type: childType}

	rootType := &ComplexType{
		Name:    QName{URI: testNS, Local: "rootType"},
		Content: ContentElementOnly,
		Particle: &Particle{
			Kind:      ParticleSequence,
			MinOccurs: 1,
			MaxOccurs: 1,
			Children: []*Particle{
				{Kind: ParticleElement, MinOccurs: 1, MaxOccurs: 1, Element: childDecl},
			},
		},
		Attributes: map[QName]*AttributeDecl{
			{Local: "id"}: {Name: QName{Local: "id"}, Type: Builtins["ID"], Use: UseRequired},
		},
	}

	rootDecl := &ElementDecl{Name: QName{URI: testNS, Local: "root"}, Type: rootType}
	s.Elements[rootDecl.Name] = rootDecl
	s.Elements[childDecl.Name] = childDecl
	s.Types[rootType.Name] = rootType
	return s
}

func elemOf(uri, local string, attrs ...*sax.Attribute) sax.ParsedElement {
	return &sax.Element{
		QNameVal: local,
		URIVal:   uri,
		LocalVal: local,
		AttrsVal: sax.NewAttributes(attrs),
	}
}

type recordingErrors struct {
	errs []error
}

func (r *recordingErrors) Warning(ctx sax.Context, err error) {}
func (r *recordingErrors) Error(ctx sax.Context, err error)   { r.errs = append(r.errs, err) }
func (r *recordingErrors) Fatal(ctx sax.Context, err error)   { r.errs = append(r.errs, err) }

func TestValidatorHappyPath(t *testing.T) {
	schema := buildTestSchema()
	errs := &recordingErrors{}
	v := NewValidator(schema, nil, errs)

	require.NoError(t, v.StartDocument(nil))
	require.NoError(t, v.StartElement(nil, elemOf(testNS, "root", &sax.Attribute{
		QName: "id", Local: "id", Value: "r1", Specified: true,
	})))
	require.NoError(t, v.StartElement(nil, elemOf(testNS, "child")))
	require.NoError(t, v.Characters(nil, []byte("hello")))
	require.NoError(t, v.EndElement(nil, elemOf(testNS, "child")))
	require.NoError(t, v.EndElement(nil, elemOf(testNS, "root")))
	require.NoError(t, v.EndDocument(nil))

	assert.Empty(t, errs.errs)
	require.Len(t, v.PSVI, 1)
	assert.Equal(t, "hello", v.PSVI[0].Value.Lexical)
}

func TestValidatorMissingRequiredAttribute(t *testing.T) {
	schema := buildTestSchema()
	errs := &recordingErrors{}
	v := NewValidator(schema, nil, errs)

	require.NoError(t, v.StartElement(nil, elemOf(testNS, "root")))
	require.NoError(t, v.StartElement(nil, elemOf(testNS, "child")))
	require.NoError(t, v.EndElement(nil, elemOf(testNS, "child")))
	require.NoError(t, v.EndElement(nil, elemOf(testNS, "root")))

	require.NotEmpty(t, errs.errs)
}

func TestValidatorRejectsUnexpectedChild(t *testing.T) {
	schema := buildTestSchema()
	errs := &recordingErrors{}
	v := NewValidator(schema, nil, errs)

	require.NoError(t, v.StartElement(nil, elemOf(testNS, "root", &sax.Attribute{
		Local: "id", Value: "r2",
	})))
	require.NoError(t, v.StartElement(nil, elemOf(testNS, "unexpected")))
	require.NotEmpty(t, errs.errs)
}

func TestValidatorDuplicateID(t *testing.T) {
	schema := buildTestSchema()
	errs := &recordingErrors{}
	v := NewValidator(schema, nil, errs)

	require.NoError(t, v.StartElement(nil, elemOf(testNS, "root", &sax.Attribute{
		Local: "id", Value: "dup",
	})))
	require.NoError(t, v.StartElement(nil, elemOf(testNS, "child")))
	require.NoError(t, v.EndElement(nil, elemOf(testNS, "child")))
	require.NoError(t, v.EndElement(nil, elemOf(testNS, "root")))

	require.NoError(t, v.StartElement(nil, elemOf(testNS, "root", &sax.Attribute{
		Local: "id", Value: "dup",
	})))
	require.NoError(t, v.StartElement(nil, elemOf(testNS, "child")))
	require.NoError(t, v.EndElement(nil, elemOf(testNS, "child")))
	require.NoError(t, v.EndElement(nil, elemOf(testNS, "root")))

	found := false
	for _, e := range errs.errs {
		if xe, ok := e.(*xerr.Error); ok && xe.Code == xerr.CodeDuplicateID {
			found = true
		}
	}
	assert.True(t, found)
}
