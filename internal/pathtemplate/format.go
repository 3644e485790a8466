package pathtemplate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ncruces/go-strftime"
)

// formatSpec is a parsed standard format specifier:
// [[fill]align][sign][#][0][width][grouping][.precision][type]
type formatSpec struct {
	fill      rune
	align     rune
	sign      rune
	alternate bool
	zero      bool
	width     int
	grouping  rune
	precision int
	verb      rune
}

// maxSpecNumber bounds widths and precisions; a filename never needs more.
const maxSpecNumber = 4096

func isAlign(r rune) bool {
	return r == '<' || r == '>' || r == '^' || r == '='
}

func parseSpec(spec string) (formatSpec, error) {
	parsed := formatSpec{fill: ' ', precision: -1}
	runes := []rune(spec)
	i := 0

	switch {
	case len(runes) >= 2 && isAlign(runes[1]):
		parsed.fill, parsed.align = runes[0], runes[1]
		i = 2
	case len(runes) >= 1 && isAlign(runes[0]):
		parsed.align = runes[0]
		i = 1
	}
	if i < len(runes) && (runes[i] == '+' || runes[i] == '-' || runes[i] == ' ') {
		parsed.sign = runes[i]
		i++
	}
	if i < len(runes) && runes[i] == '#' {
		parsed.alternate = true
		i++
	}
	if i < len(runes) && runes[i] == '0' {
		parsed.zero = true
		i++
	}
	start := i
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		i++
	}
	if i > start {
		width, err := specNumber(spec, "width", string(runes[start:i]))
		if err != nil {
			return formatSpec{}, err
		}
		parsed.width = width
	}
	if i < len(runes) && (runes[i] == ',' || runes[i] == '_') {
		parsed.grouping = runes[i]
		i++
	}
	if i < len(runes) && runes[i] == '.' {
		i++
		start = i
		for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
			i++
		}
		if i == start {
			return formatSpec{}, fmt.Errorf("%w: format spec %q is missing a precision", ErrInvalidTemplate, spec)
		}
		precision, err := specNumber(spec, "precision", string(runes[start:i]))
		if err != nil {
			return formatSpec{}, err
		}
		parsed.precision = precision
	}
	if i < len(runes) {
		parsed.verb = runes[i]
		i++
	}
	if i != len(runes) {
		return formatSpec{}, fmt.Errorf("%w: invalid format spec %q", ErrInvalidTemplate, spec)
	}
	if parsed.zero && parsed.align == 0 {
		parsed.fill, parsed.align = '0', '='
	}
	return parsed, nil
}

func specNumber(spec, what, digits string) (int, error) {
	n, err := strconv.Atoi(digits)
	if err != nil || n > maxSpecNumber {
		return 0, fmt.Errorf("%w: %s %s in format spec %q exceeds %d", ErrInvalidTemplate, what, digits, spec, maxSpecNumber)
	}
	return n, nil
}

func formatString(value, spec string) (string, error) {
	if spec == "" {
		return value, nil
	}
	parsed, err := parseSpec(spec)
	if err != nil {
		return "", err
	}
	switch {
	case parsed.verb != 0 && parsed.verb != 's':
		return "", fmt.Errorf("%w: unknown format code %q for a text field", ErrInvalidTemplate, parsed.verb)
	case parsed.sign != 0:
		return "", fmt.Errorf("%w: sign not allowed in a text format spec", ErrInvalidTemplate)
	case parsed.alternate:
		return "", fmt.Errorf("%w: alternate form not allowed in a text format spec", ErrInvalidTemplate)
	case parsed.grouping != 0:
		return "", fmt.Errorf("%w: grouping not allowed in a text format spec", ErrInvalidTemplate)
	case parsed.align == '=':
		return "", fmt.Errorf("%w: '=' alignment not allowed in a text format spec", ErrInvalidTemplate)
	}
	if parsed.precision >= 0 && utf8.RuneCountInString(value) > parsed.precision {
		value = string([]rune(value)[:parsed.precision])
	}
	align := parsed.align
	if align == 0 {
		align = '<'
	}
	return pad("", value, parsed.fill, align, parsed.width), nil
}

func formatInt(value int64, spec string) (string, error) {
	if spec == "" {
		return strconv.FormatInt(value, 10), nil
	}
	parsed, err := parseSpec(spec)
	if err != nil {
		return "", err
	}

	negative := value < 0
	magnitude := uint64(value)
	if negative {
		magnitude = uint64(-value)
	}

	var digits, prefix string
	switch parsed.verb {
	case 0, 'd', 'n':
		digits = strconv.FormatUint(magnitude, 10)
	case 'b':
		digits, prefix = strconv.FormatUint(magnitude, 2), "0b"
	case 'o':
		digits, prefix = strconv.FormatUint(magnitude, 8), "0o"
	case 'x':
		digits, prefix = strconv.FormatUint(magnitude, 16), "0x"
	case 'X':
		digits, prefix = strings.ToUpper(strconv.FormatUint(magnitude, 16)), "0X"
	case 'c':
		digits = string(rune(value))
	case 'f', 'F', 'e', 'E', 'g', 'G', '%':
		return formatFloat(float64(value), parsed)
	default:
		return "", fmt.Errorf("%w: unknown format code %q for a number field", ErrInvalidTemplate, parsed.verb)
	}
	if parsed.precision >= 0 {
		return "", fmt.Errorf("%w: precision not allowed in an integer format spec", ErrInvalidTemplate)
	}
	if !parsed.alternate {
		prefix = ""
	}
	if parsed.grouping != 0 {
		digits = group(digits, parsed.grouping)
	}

	sign := signFor(negative, parsed.sign)
	align := parsed.align
	if align == 0 {
		align = '>'
	}
	return pad(sign+prefix, digits, parsed.fill, align, parsed.width), nil
}

func formatFloat(value float64, parsed formatSpec) (string, error) {
	precision := parsed.precision
	if precision < 0 {
		precision = 6
	}
	negative := value < 0
	if negative {
		value = -value
	}
	var digits string
	switch parsed.verb {
	case '%':
		digits = strconv.FormatFloat(value*100, 'f', precision, 64) + "%"
	case 'F':
		digits = strconv.FormatFloat(value, 'f', precision, 64)
	default:
		digits = strconv.FormatFloat(value, byte(parsed.verb), precision, 64)
	}
	align := parsed.align
	if align == 0 {
		align = '>'
	}
	return pad(signFor(negative, parsed.sign), digits, parsed.fill, align, parsed.width), nil
}

func formatTime(value time.Time, spec string) string {
	if spec == "" {
		return value.Format(DefaultTimeLayout)
	}
	return strftime.Format(spec, value)
}

func signFor(negative bool, mode rune) string {
	switch {
	case negative:
		return "-"
	case mode == '+':
		return "+"
	case mode == ' ':
		return " "
	default:
		return ""
	}
}

// group inserts sep between every three digits counted from the right.
func group(digits string, sep rune) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteRune(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// pad widens prefix+body to width code points. '=' alignment places the
// fill between prefix and body.
func pad(prefix, body string, fill, align rune, width int) string {
	missing := width - utf8.RuneCountInString(prefix) - utf8.RuneCountInString(body)
	if missing <= 0 {
		return prefix + body
	}
	switch align {
	case '<':
		return prefix + body + strings.Repeat(string(fill), missing)
	case '^':
		left := missing / 2
		return strings.Repeat(string(fill), left) + prefix + body + strings.Repeat(string(fill), missing-left)
	case '=':
		return prefix + strings.Repeat(string(fill), missing) + body
	default:
		return strings.Repeat(string(fill), missing) + prefix + body
	}
}
