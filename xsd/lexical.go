package xsd

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

var (
	decimalPattern  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	integerPattern  = regexp.MustCompile(`^[+-]?\d+$`)
	doublePattern   = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$|^[+-]?INF$|^NaN$`)
	anyURIExcluded  = regexp.MustCompile(`[\s<>"{}|\\^` + "`" + `]`)
	qnamePattern    = regexp.MustCompile(`^([A-Za-z_][\w.\-]*:)?[A-Za-z_][\w.\-]*$`)
	namePattern     = regexp.MustCompile(`^[A-Za-z_:][\w.\-:]*$`)
	ncnamePattern   = regexp.MustCompile(`^[A-Za-z_][\w.\-]*$`)
	nmtokenPattern  = regexp.MustCompile(`^[\w.\-:]+$`)
	languagePattern = regexp.MustCompile(`^[A-Za-z]{1,8}(-[A-Za-z0-9]{1,8})*$`)
	hexBinPattern   = regexp.MustCompile(`^([0-9A-Fa-f]{2})*$`)
	base64Pattern   = regexp.MustCompile(`^[A-Za-z0-9+/=\s]*$`)

	dateTimePattern   = regexp.MustCompile(`^-?\d{4,}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
	datePattern       = regexp.MustCompile(`^-?\d{4,}-\d{2}-\d{2}(Z|[+-]\d{2}:\d{2})?$`)
	timePattern       = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
	gYearMonthPattern = regexp.MustCompile(`^-?\d{4,}-\d{2}(Z|[+-]\d{2}:\d{2})?$`)
	gYearPattern      = regexp.MustCompile(`^-?\d{4,}(Z|[+-]\d{2}:\d{2})?$`)
	gMonthDayPattern  = regexp.MustCompile(`^--\d{2}-\d{2}(Z|[+-]\d{2}:\d{2})?$`)
	gDayPattern       = regexp.MustCompile(`^---\d{2}(Z|[+-]\d{2}:\d{2})?$`)
	gMonthPattern     = regexp.MustCompile(`^--\d{2}(Z|[+-]\d{2}:\d{2})?$`)
	durationPattern   = regexp.MustCompile(`^-?P(\d+Y)?(\d+M)?(\d+D)?(T(\d+H)?(\d+M)?(\d+(\.\d+)?S)?)?$`)
)

// validateLexical runs the type-specific lexical check after facet
// checks. It reports a plain error, wrapped into a FacetViolation-
// shaped message by the caller.
func validateLexical(kind lexicalKind, value string) error {
	switch kind {
	case lexString, lexAnyType:
		return nil
	case lexBoolean:
		switch value {
		case "true", "false", "1", "0":
			return nil
		}
		return fmt.Errorf("%q is not a valid boolean (true|false|1|0)", value)
	case lexDecimal:
		if !decimalPattern.MatchString(value) {
			return fmt.Errorf("%q is not a valid decimal", value)
		}
		return nil
	case lexInteger:
		if !integerPattern.MatchString(value) {
			return fmt.Errorf("%q is not a valid integer", value)
		}
		return nil
	case lexFloat, lexDouble:
		if !doublePattern.MatchString(value) {
			return fmt.Errorf("%q is not a valid %s", value, kindName(kind))
		}
		return nil
	case lexAnyURI:
		if anyURIExcluded.MatchString(value) {
			return fmt.Errorf("%q is not a valid anyURI", value)
		}
		return nil
	case lexDateTime:
		return matchOrErr(dateTimePattern, value, "dateTime")
	case lexDate:
		return matchOrErr(datePattern, value, "date")
	case lexTime:
		return matchOrErr(timePattern, value, "time")
	case lexDuration:
		return matchOrErr(durationPattern, value, "duration")
	case lexGYearMonth:
		return matchOrErr(gYearMonthPattern, value, "gYearMonth")
	case lexGYear:
		return matchOrErr(gYearPattern, value, "gYear")
	case lexGMonthDay:
		return matchOrErr(gMonthDayPattern, value, "gMonthDay")
	case lexGDay:
		return matchOrErr(gDayPattern, value, "gDay")
	case lexGMonth:
		return matchOrErr(gMonthPattern, value, "gMonth")
	case lexHexBinary:
		return matchOrErr(hexBinPattern, value, "hexBinary")
	case lexBase64Binary:
		return matchOrErr(base64Pattern, value, "base64Binary")
	case lexQName:
		return matchOrErr(qnamePattern, value, "QName")
	case lexName:
		return matchOrErr(namePattern, value, "Name")
	case lexNCName:
		return matchOrErr(ncnamePattern, value, "NCName")
	case lexNMToken:
		return matchOrErr(nmtokenPattern, value, "NMTOKEN")
	case lexLanguage:
		return matchOrErr(languagePattern, value, "language")
	default:
		return nil
	}
}

func matchOrErr(re *regexp.Regexp, value, name string) error {
	if !re.MatchString(value) {
		return fmt.Errorf("%q is not a valid %s", value, name)
	}
	return nil
}

func kindName(k lexicalKind) string {
	switch k {
	case lexFloat:
		return "float"
	case lexDouble:
		return "double"
	default:
		return "value"
	}
}

// TypedValue is the PSVI typed value: the lexical form plus a variant
// of primitive representations. Exactly one of the typed fields is
// meaningful, selected by Kind; conversion failure after successful
// facet validation leaves only Lexical set and Kind == lexString (the
// typed value falls back to the lexical string).
type TypedValue struct {
	Lexical string
	Kind    lexicalKind

	Bool  bool
	Int   *big.Int
	Float *big.Float
	Bytes []byte
}

// ConvertTypedValue maps a validated lexical value to its typed
// representation. Decimal and integer values use math/big for
// arbitrary precision (see DESIGN.md for why this stays on the
// standard library rather than a third-party decimal type).
func ConvertTypedValue(kind lexicalKind, lexical string) TypedValue {
	tv := TypedValue{Lexical: lexical, Kind: kind}
	switch kind {
	case lexBoolean:
		tv.Bool = lexical == "true" || lexical == "1"
	case lexInteger:
		if n, ok := new(big.Int).SetString(lexical, 10); ok {
			tv.Int = n
		} else {
			tv.Kind = lexString
		}
	case lexDecimal, lexFloat, lexDouble:
		v := strings.TrimSuffix(lexical, "")
		if v == "INF" || v == "+INF" {
			tv.Float = big.NewFloat(0).SetInf(false)
		} else if v == "-INF" {
			tv.Float = big.NewFloat(0).SetInf(true)
		} else if v == "NaN" {
			tv.Kind = lexString
		} else if f, _, err := big.ParseFloat(v, 10, 256, big.ToNearestEven); err == nil {
			tv.Float = f
		} else if f, err := strconv.ParseFloat(v, 64); err == nil {
			tv.Float = big.NewFloat(f)
		} else {
			tv.Kind = lexString
		}
	case lexHexBinary:
		b, err := decodeHex(lexical)
		if err != nil {
			tv.Kind = lexString
		} else {
			tv.Bytes = b
		}
	default:
		// string-shaped types: Lexical alone carries the value.
	}
	return tv
}

func decodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hexBinary value")
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexDigit(s[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexDigit(s[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit %q", c)
	}
}
