package xsd

import (
	"fmt"
	"math/big"
	"strings"
)

// FacetError names the specific facet a value failed.
type FacetError struct {
	Facet string
	Msg   string
}

func (e *FacetError) Error() string { return e.Msg }

func facetErr(facet, format string, args ...interface{}) *FacetError {
	return &FacetError{Facet: facet, Msg: fmt.Sprintf(format, args...)}
}

// ValidateSimpleType runs the full validation pipeline against a
// lexical value: whitespace normalization, then atomic/list/union
// branching with facet and lexical checks. It returns the first facet
// or lexical violation encountered, or nil and the converted TypedValue
// on success.
func ValidateSimpleType(t *SimpleType, lexical string) (TypedValue, error) {
	ws := effectiveWhitespace(t)
	normalized := applyWhitespace(lexical, ws)

	switch effectiveVariety(t) {
	case VarietyList:
		return validateList(t, normalized)
	case VarietyUnion:
		return validateUnion(t, normalized)
	default:
		return validateAtomic(t, normalized)
	}
}

// effectiveVariety walks the base chain the same way effectiveWhitespace
// does: a restriction of a list is still a list.
func effectiveVariety(t *SimpleType) Variety {
	for cur := t; cur != nil; {
		if cur.Variety == VarietyList || cur.Variety == VarietyUnion {
			return cur.Variety
		}
		st, ok := cur.Base.(*SimpleType)
		if !ok {
			break
		}
		cur = st
	}
	return VarietyAtomic
}

func validateAtomic(t *SimpleType, value string) (TypedValue, error) {
	if err := checkLengthFacets(t, value, len([]rune(value))); err != nil {
		return TypedValue{}, err
	}
	if err := checkPattern(t, value); err != nil {
		return TypedValue{}, err
	}
	if err := checkEnumeration(t, value); err != nil {
		return TypedValue{}, err
	}
	kind := BuiltinKindOf(t)
	if err := validateLexical(kind, value); err != nil {
		return TypedValue{}, err
	}
	if err := checkNumericFacets(t, kind, value); err != nil {
		return TypedValue{}, err
	}
	if err := checkDigitFacets(t, kind, value); err != nil {
		return TypedValue{}, err
	}
	return ConvertTypedValue(kind, value), nil
}

func validateList(t *SimpleType, value string) (TypedValue, error) {
	items := strings.Fields(value)
	if err := checkLengthFacets(t, value, len(items)); err != nil {
		return TypedValue{}, err
	}
	if err := checkPattern(t, value); err != nil {
		return TypedValue{}, err
	}
	if err := checkEnumeration(t, value); err != nil {
		return TypedValue{}, err
	}
	item := effectiveItemType(t)
	for _, it := range items {
		if item != nil {
			if _, err := ValidateSimpleType(item, it); err != nil {
				return TypedValue{}, err
			}
		}
	}
	return TypedValue{Lexical: value, Kind: lexString}, nil
}

func effectiveItemType(t *SimpleType) *SimpleType {
	for cur := t; cur != nil; {
		if cur.ItemType != nil {
			if st, ok := cur.ItemType.(*SimpleType); ok {
				return st
			}
			return nil
		}
		st, ok := cur.Base.(*SimpleType)
		if !ok {
			return nil
		}
		cur = st
	}
	return nil
}

func validateUnion(t *SimpleType, value string) (TypedValue, error) {
	members := effectiveMembers(t)
	var lastErr error
	for _, m := range members {
		st, ok := m.(*SimpleType)
		if !ok {
			continue
		}
		if tv, err := ValidateSimpleType(st, value); err == nil {
			return tv, nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no member type accepted %q", value)
	}
	return TypedValue{}, fmt.Errorf("value %q matched no union member: %w", value, lastErr)
}

func effectiveMembers(t *SimpleType) []Type {
	for cur := t; cur != nil; {
		if len(cur.Members) > 0 {
			return cur.Members
		}
		st, ok := cur.Base.(*SimpleType)
		if !ok {
			return nil
		}
		cur = st
	}
	return nil
}

func checkLengthFacets(t *SimpleType, value string, length int) error {
	f := effectiveFacets(t)
	if f.HasLength && length != f.Length {
		return facetErr("length", "value %q has length %d, expected exactly %d", value, length, f.Length)
	}
	if f.HasMinLength && length < f.MinLength {
		return facetErr("minLength", "value %q has length %d, less than minLength %d", value, length, f.MinLength)
	}
	if f.HasMaxLength && length > f.MaxLength {
		return facetErr("maxLength", "value %q has length %d, greater than maxLength %d", value, length, f.MaxLength)
	}
	return nil
}

func checkPattern(t *SimpleType, value string) error {
	for cur := t; cur != nil; {
		if cur.Facets.Pattern != "" {
			re, err := cur.Facets.CompiledPattern()
			if err == nil && re != nil && !re.MatchString(value) {
				return facetErr("pattern", "value %q does not match pattern %q", value, cur.Facets.Pattern)
			}
			break
		}
		st, ok := cur.Base.(*SimpleType)
		if !ok {
			break
		}
		cur = st
	}
	return nil
}

func checkEnumeration(t *SimpleType, value string) error {
	for cur := t; cur != nil; {
		if len(cur.Facets.Enumeration) > 0 {
			for _, e := range cur.Facets.Enumeration {
				if e == value {
					return nil
				}
			}
			return facetErr("enumeration", "value %q is not one of %v", value, cur.Facets.Enumeration)
		}
		st, ok := cur.Base.(*SimpleType)
		if !ok {
			break
		}
		cur = st
	}
	return nil
}

func effectiveFacets(t *SimpleType) Facets {
	var merged Facets
	// Walk from the root down so the most specific (closest to t)
	// restriction wins for each individually-set facet.
	chain := chainToRoot(t)
	for i := len(chain) - 1; i >= 0; i-- {
		f := chain[i].Facets
		if f.HasLength {
			merged.Length, merged.HasLength = f.Length, true
		}
		if f.HasMinLength {
			merged.MinLength, merged.HasMinLength = f.MinLength, true
		}
		if f.HasMaxLength {
			merged.MaxLength, merged.HasMaxLength = f.MaxLength, true
		}
	}
	return merged
}

func chainToRoot(t *SimpleType) []*SimpleType {
	var chain []*SimpleType
	for cur := t; cur != nil; {
		chain = append(chain, cur)
		st, ok := cur.Base.(*SimpleType)
		if !ok {
			break
		}
		cur = st
	}
	return chain
}

func checkNumericFacets(t *SimpleType, kind lexicalKind, value string) error {
	if kind != lexDecimal && kind != lexInteger && kind != lexFloat && kind != lexDouble {
		return nil
	}
	f := numericBound(t)
	n, ok := new(big.Float).SetString(value)
	if !ok {
		return nil
	}
	if f.HasMinInclusive {
		if b, ok := new(big.Float).SetString(f.MinInclusive); ok && n.Cmp(b) < 0 {
			return facetErr("minInclusive", "value %q is less than minInclusive %q", value, f.MinInclusive)
		}
	}
	if f.HasMaxInclusive {
		if b, ok := new(big.Float).SetString(f.MaxInclusive); ok && n.Cmp(b) > 0 {
			return facetErr("maxInclusive", "value %q is greater than maxInclusive %q", value, f.MaxInclusive)
		}
	}
	if f.HasMinExclusive {
		if b, ok := new(big.Float).SetString(f.MinExclusive); ok && n.Cmp(b) <= 0 {
			return facetErr("minExclusive", "value %q is not greater than minExclusive %q", value, f.MinExclusive)
		}
	}
	if f.HasMaxExclusive {
		if b, ok := new(big.Float).SetString(f.MaxExclusive); ok && n.Cmp(b) >= 0 {
			return facetErr("maxExclusive", "value %q is not less than maxExclusive %q", value, f.MaxExclusive)
		}
	}
	return nil
}

func numericBound(t *SimpleType) Facets {
	var merged Facets
	chain := chainToRoot(t)
	for i := len(chain) - 1; i >= 0; i-- {
		f := chain[i].Facets
		if f.HasMinInclusive {
			merged.MinInclusive, merged.HasMinInclusive = f.MinInclusive, true
		}
		if f.HasMaxInclusive {
			merged.MaxInclusive, merged.HasMaxInclusive = f.MaxInclusive, true
		}
		if f.HasMinExclusive {
			merged.MinExclusive, merged.HasMinExclusive = f.MinExclusive, true
		}
		if f.HasMaxExclusive {
			merged.MaxExclusive, merged.HasMaxExclusive = f.MaxExclusive, true
		}
	}
	return merged
}

func checkDigitFacets(t *SimpleType, kind lexicalKind, value string) error {
	if kind != lexDecimal && kind != lexInteger {
		return nil
	}
	f := digitBound(t)
	digits := strings.TrimLeft(strings.TrimPrefix(strings.TrimPrefix(value, "-"), "+"), "0")
	intPart, fracPart, _ := strings.Cut(digits, ".")
	if f.HasTotalDigits {
		total := len(strings.ReplaceAll(intPart+fracPart, ".", ""))
		if total > f.TotalDigits {
			return facetErr("totalDigits", "value %q has %d significant digits, more than totalDigits %d", value, total, f.TotalDigits)
		}
	}
	if f.HasFractionDigits && len(fracPart) > f.FractionDigits {
		return facetErr("fractionDigits", "value %q has %d fraction digits, more than fractionDigits %d", value, len(fracPart), f.FractionDigits)
	}
	return nil
}

func digitBound(t *SimpleType) Facets {
	var merged Facets
	chain := chainToRoot(t)
	for i := len(chain) - 1; i >= 0; i-- {
		f := chain[i].Facets
		if f.HasTotalDigits {
			merged.TotalDigits, merged.HasTotalDigits = f.TotalDigits, true
		}
		if f.HasFractionDigits {
			merged.FractionDigits, merged.HasFractionDigits = f.FractionDigits, true
		}
	}
	return merged
}
