package xsd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSimpleTypeBuiltinInteger(t *testing.T) {
	tv, err := ValidateSimpleType(Builtins["integer"], "  42 ")
	require.NoError(t, err)
	require.NotNil(t, tv.Int)
	assert.Equal(t, int64(42), tv.Int.Int64())
}

func TestValidateSimpleTypeRejectsBadLexical(t *testing.T) {
	_, err := ValidateSimpleType(Builtins["integer"], "4.2")
	assert.Error(t, err)
}

func TestValidateSimpleTypeRestrictionFacets(t *testing.T) {
	percentage := &SimpleType{
		Name:    QName{Local: "percentage"},
		Base:    Builtins["integer"],
		Variety: VarietyAtomic,
		Facets: Facets{
			MinInclusive:    "0",
			HasMinInclusive: true,
			MaxInclusive:    "100",
			HasMaxInclusive: true,
		},
	}

	_, err := ValidateSimpleType(percentage, "50")
	assert.NoError(t, err)

	_, err = ValidateSimpleType(percentage, "150")
	var fe *FacetError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "maxInclusive", fe.Facet)
}

func TestValidateSimpleTypePattern(t *testing.T) {
	code := &SimpleType{
		Name:    QName{Local: "code"},
		Base:    Builtins["string"],
		Variety: VarietyAtomic,
		Facets:  Facets{Pattern: "[A-Z]{3}"},
	}
	_, err := ValidateSimpleType(code, "ABC")
	assert.NoError(t, err)
	_, err = ValidateSimpleType(code, "abc")
	assert.Error(t, err)
}

func TestValidateSimpleTypeEnumeration(t *testing.T) {
	color := &SimpleType{
		Name:    QName{Local: "color"},
		Base:    Builtins["string"],
		Variety: VarietyAtomic,
		Facets:  Facets{Enumeration: []string{"red", "green", "blue"}},
	}
	_, err := ValidateSimpleType(color, "green")
	assert.NoError(t, err)
	_, err = ValidateSimpleType(color, "purple")
	assert.Error(t, err)
}

func TestValidateSimpleTypeList(t *testing.T) {
	tv, err := ValidateSimpleType(Builtins["NMTOKENS"], "alpha beta gamma")
	require.NoError(t, err)
	assert.Equal(t, "alpha beta gamma", tv.Lexical)

	_, err = ValidateSimpleType(Builtins["NMTOKENS"], "alpha <bad>")
	assert.Error(t, err)
}

func TestValidateSimpleTypeUnion(t *testing.T) {
	u := &SimpleType{
		Name:    QName{Local: "intOrToken"},
		Variety: VarietyUnion,
		Members: []Type{Builtins["integer"], Builtins["NMTOKEN"]},
	}
	_, err := ValidateSimpleType(u, "42")
	assert.NoError(t, err)
	_, err = ValidateSimpleType(u, "some-token")
	assert.NoError(t, err)
	_, err = ValidateSimpleType(u, "has spaces")
	assert.Error(t, err)
}

func TestWhitespaceCollapseDefault(t *testing.T) {
	tv, err := ValidateSimpleType(Builtins["string"], "  a   b  ")
	require.NoError(t, err)
	assert.Equal(t, "a b", tv.Lexical)
}

func TestDigitFacets(t *testing.T) {
	money := &SimpleType{
		Name:    QName{Local: "money"},
		Base:    Builtins["decimal"],
		Variety: VarietyAtomic,
		Facets: Facets{
			TotalDigits:       5,
			HasTotalDigits:    true,
			FractionDigits:    2,
			HasFractionDigits: true,
		},
	}
	_, err := ValidateSimpleType(money, "123.45")
	assert.NoError(t, err)
	_, err = ValidateSimpleType(money, "123.456")
	assert.Error(t, err)
	_, err = ValidateSimpleType(money, "12345.45")
	assert.Error(t, err)
}
