package parser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"
	"github.com/cpkb-bluezoo/gonzalez-sub009/sax"
)

// eventRecorder appends a line of text per SAX event, so a whole
// parse can be asserted against as a single ordered slice.
type eventRecorder struct {
	events []string
	errs   []error
}

func (r *eventRecorder) handlers() Handlers {
	h := sax.New()
	h.StartDocumentHandler = func(ctx sax.Context) error {
		r.events = append(r.events, "startDocument")
		return nil
	}
	h.EndDocumentHandler = func(ctx sax.Context) error {
		r.events = append(r.events, "endDocument")
		return nil
	}
	h.StartPrefixMappingHandler = func(ctx sax.Context, prefix, uri string) error {
		r.events = append(r.events, fmt.Sprintf("startPrefixMapping(%s,%s)", prefix, uri))
		return nil
	}
	h.EndPrefixMappingHandler = func(ctx sax.Context, prefix string) error {
		r.events = append(r.events, fmt.Sprintf("endPrefixMapping(%s)", prefix))
		return nil
	}
	h.StartElementHandler = func(ctx sax.Context, elem sax.ParsedElement) error {
		r.events = append(r.events, fmt.Sprintf("startElement(%s,%s,%s)", elem.URI(), elem.LocalName(), elem.QName()))
		return nil
	}
	h.EndElementHandler = func(ctx sax.Context, elem sax.ParsedElement) error {
		r.events = append(r.events, fmt.Sprintf("endElement(%s,%s,%s)", elem.URI(), elem.LocalName(), elem.QName()))
		return nil
	}
	h.CharactersHandler = func(ctx sax.Context, text []byte) error {
		r.events = append(r.events, fmt.Sprintf("characters(%s)", string(text)))
		return nil
	}
	return Handlers{
		Content: h,
		Errors: &recordingErrorHandler{r},
	}
}

type recordingErrorHandler struct {
	r *eventRecorder
}

func (e *recordingErrorHandler) Warning(ctx sax.Context, err error) { e.r.errs = append(e.r.errs, err) }
func (e *recordingErrorHandler) Error(ctx sax.Context, err error)   { e.r.errs = append(e.r.errs, err) }
func (e *recordingErrorHandler) Fatal(ctx sax.Context, err error)   { e.r.errs = append(e.r.errs, err) }

func parseAllAtOnce(t *testing.T, h Handlers, features *FeatureSet, doc string) error {
	t.Helper()
	p := New(h, features)
	if err := p.Receive([]byte(doc)); err != nil {
		return err
	}
	return p.Close()
}

// TestMinimalRootEvents covers S1.
func TestMinimalRootEvents(t *testing.T) {
	r := &eventRecorder{}
	err := parseAllAtOnce(t, r.handlers(), nil, `<?xml version='1.0'?><r/>`)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"startDocument",
		"startElement(,r,r)",
		"endElement(,r,r)",
		"endDocument",
	}, r.events)
}

// TestNamespacedChildElements covers S2.
func TestNamespacedChildElements(t *testing.T) {
	r := &eventRecorder{}
	err := parseAllAtOnce(t, r.handlers(), nil, `<ns:a xmlns:ns='http://x'><ns:b/></ns:a>`)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"startDocument",
		"startPrefixMapping(ns,http://x)",
		"startElement(http://x,a,ns:a)",
		"startElement(http://x,b,ns:b)",
		"endElement(http://x,b,ns:b)",
		"endElement(http://x,a,ns:a)",
		"endPrefixMapping(ns)",
		"endDocument",
	}, r.events)
}

// TestGeneralEntityExpansion covers S3: nested internal entities
// expand to a single coalesced Characters event.
func TestGeneralEntityExpansion(t *testing.T) {
	r := &eventRecorder{}
	doc := `<!DOCTYPE r [<!ENTITY e "A&f;C"><!ENTITY f "B">]><r>&e;</r>`
	err := parseAllAtOnce(t, r.handlers(), nil, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"startDocument",
		"startElement(,r,r)",
		"characters(ABC)",
		"endElement(,r,r)",
		"endDocument",
	}, r.events)
}

// TestContentModelSequenceViolation covers S4: a recoverable
// ContentModelViolation is reported but the event stream stays
// balanced.
func TestContentModelSequenceViolation(t *testing.T) {
	r := &eventRecorder{}
	features := NewFeatureSet()
	require.NoError(t, features.SetFeature(FeatureValidation, true))
	doc := `<!DOCTYPE r [<!ELEMENT r (a,b,c)><!ELEMENT a EMPTY><!ELEMENT b EMPTY><!ELEMENT c EMPTY>]><r><a/><c/><b/></r>`
	err := parseAllAtOnce(t, r.handlers(), features, doc)
	require.NoError(t, err)

	var codes []string
	for _, e := range r.errs {
		if xe, ok := e.(*xerr.Error); ok {
			codes = append(codes, xe.Code)
		}
	}
	assert.Contains(t, codes, xerr.CodeContentModelViolation)

	assert.Equal(t, []string{
		"startDocument",
		"startElement(,r,r)",
		"startElement(,a,a)",
		"endElement(,a,a)",
		"startElement(,c,c)",
		"endElement(,c,c)",
		"startElement(,b,b)",
		"endElement(,b,b)",
		"endElement(,r,r)",
		"endDocument",
	}, r.events)
}

// TestMismatchedEndTagIsFatal covers the mismatched-tag well-
// formedness check: "<a></b>" must not silently parse.
func TestMismatchedEndTagIsFatal(t *testing.T) {
	r := &eventRecorder{}
	err := parseAllAtOnce(t, r.handlers(), nil, `<a></b>`)
	require.Error(t, err)
	xe, ok := err.(*xerr.Error)
	require.True(t, ok)
	assert.Equal(t, xerr.CodeMismatchedTag, xe.Code)
}

// TestUnmatchedEndTagIsFatal covers a stray end tag with no open
// start tag at all.
func TestUnmatchedEndTagIsFatal(t *testing.T) {
	r := &eventRecorder{}
	err := parseAllAtOnce(t, r.handlers(), nil, `<a/></a>`)
	require.Error(t, err)
	xe, ok := err.(*xerr.Error)
	require.True(t, ok)
	assert.Equal(t, xerr.CodeMismatchedTag, xe.Code)
}

// TestMultipleRootElementsRejected covers the document-level
// PROLOG/CONTENT/EPILOG state machine: a second root element is a
// fatal well-formedness error.
func TestMultipleRootElementsRejected(t *testing.T) {
	r := &eventRecorder{}
	err := parseAllAtOnce(t, r.handlers(), nil, `<a/><b/>`)
	require.Error(t, err)
	xe, ok := err.(*xerr.Error)
	require.True(t, ok)
	assert.Equal(t, xerr.CodeMultipleRoots, xe.Code)
}

// TestCharacterDataOutsideRootRejected covers the epilog side of the
// same state machine: non-whitespace text after the root element is
// fatal, but trailing whitespace is tolerated.
func TestCharacterDataOutsideRootRejected(t *testing.T) {
	r := &eventRecorder{}
	err := parseAllAtOnce(t, r.handlers(), nil, `<a/>stray`)
	require.Error(t, err)
	xe, ok := err.(*xerr.Error)
	require.True(t, ok)
	assert.Equal(t, xerr.CodeMalformedDocument, xe.Code)
}

func TestTrailingWhitespaceAfterRootTolerated(t *testing.T) {
	r := &eventRecorder{}
	err := parseAllAtOnce(t, r.handlers(), nil, "<a/>\n  \n")
	require.NoError(t, err)
}

func TestLeadingCharacterDataBeforeRootRejected(t *testing.T) {
	r := &eventRecorder{}
	err := parseAllAtOnce(t, r.handlers(), nil, `stray<a/>`)
	require.Error(t, err)
	xe, ok := err.(*xerr.Error)
	require.True(t, ok)
	assert.Equal(t, xerr.CodeMalformedDocument, xe.Code)
}

// TestCharacterDataCoalesced covers character-run coalescing: text
// split across a char reference still reports as one Characters
// event, matching the same parse fed in a single token.
func TestCharacterDataCoalesced(t *testing.T) {
	r := &eventRecorder{}
	err := parseAllAtOnce(t, r.handlers(), nil, `<r>foo&amp;bar&#32;baz</r>`)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"startDocument",
		"startElement(,r,r)",
		"characters(foo&bar baz)",
		"endElement(,r,r)",
		"endDocument",
	}, r.events)
}

// TestAttributeWhitespaceNormalization covers the four-step attribute
// pipeline's normalization stage: tab/newline/CR collapse to a plain
// space for every declared type, but only non-CDATA types additionally
// trim and collapse interior runs.
func TestAttributeWhitespaceNormalization(t *testing.T) {
	var gotCDATA, gotNmtoken string
	r := &eventRecorder{}
	h := r.handlers().Content.(*sax.SAX)
	h.StartElementHandler = func(ctx sax.Context, elem sax.ParsedElement) error {
		if elem.LocalName() != "a" {
			return nil
		}
		gotCDATA = elem.Attributes().ByQName("raw").Value()
		gotNmtoken = elem.Attributes().ByQName("tok").Value()
		return nil
	}

	doc := "<!DOCTYPE r [<!ELEMENT r (a)><!ELEMENT a EMPTY><!ATTLIST a raw CDATA #IMPLIED tok NMTOKEN #IMPLIED>]>" +
		"<r><a raw=\" x\ty  z \" tok=\" x\ty  z \"/></r>"
	err := parseAllAtOnce(t, Handlers{Content: h}, nil, doc)
	require.NoError(t, err)

	// CDATA: #x9 maps to a space, but leading/trailing space and the
	// doubled interior space survive untouched.
	assert.Equal(t, " x y  z ", gotCDATA)
	// NMTOKEN: the same replacement, then trimmed and collapsed.
	assert.Equal(t, "x y z", gotNmtoken)
}

// TestCharacterDataCoalescedAcrossChunkBoundaries asserts the same
// document yields the same Characters event boundaries byte-by-byte
// as it does fed whole.
func TestCharacterDataCoalescedAcrossChunkBoundaries(t *testing.T) {
	doc := `<r>foo&amp;bar&#32;baz</r>`

	whole := &eventRecorder{}
	require.NoError(t, parseAllAtOnce(t, whole.handlers(), nil, doc))

	split := &eventRecorder{}
	p := New(split.handlers(), nil)
	for i := 0; i < len(doc); i++ {
		require.NoError(t, p.Receive([]byte{doc[i]}))
	}
	require.NoError(t, p.Close())

	assert.Equal(t, whole.events, split.events)
}
