// Package pathtemplate renders output filename templates such as
// "{title}/{title} {episode_number:02d}.mp4".
//
// The syntax follows Python's str.format with keyword fields only:
// "{name}", "{name:spec}", "{name!s}", attribute access on dates
// ("{airdate.year}"), and "{{" / "}}" for literal braces. Date fields take a
// strftime pattern as their spec, e.g. "{airdate:%Y-%m-%d}".
package pathtemplate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMissingField is returned when a template names a field that has no value.
	ErrMissingField = errors.New("missing template field")
	// ErrInvalidTemplate is returned for syntax errors and format specs that
	// do not apply to the field's value.
	ErrInvalidTemplate = errors.New("invalid template")
)

// Fields maps template field names to values. Supported value types are
// string, int, and time.Time.
type Fields map[string]any

// DefaultTimeLayout renders a date field without a format spec, matching
// the str() form of a Python datetime.
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Render substitutes fields into template.
func Render(template string, fields Fields) (string, error) {
	var out strings.Builder
	out.Grow(len(template) + 32)

	for i := 0; i < len(template); {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				out.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unmatched '{' at offset %d", ErrInvalidTemplate, i)
			}
			field := template[i+1 : i+1+end]
			if strings.ContainsRune(field, '{') {
				return "", fmt.Errorf("%w: nested field in %q", ErrInvalidTemplate, field)
			}
			rendered, err := renderField(field, fields)
			if err != nil {
				return "", err
			}
			out.WriteString(rendered)
			i += end + 2
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				out.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("%w: single '}' at offset %d", ErrInvalidTemplate, i)
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), nil
}

// Names lists the fields referenced by template, in order of first use,
// without rendering it.
func Names(template string) ([]string, error) {
	raw, err := rawFields(template)
	if err != nil {
		return nil, err
	}
	var names []string
	seen := map[string]struct{}{}
	for _, field := range raw {
		name, _, _, err := splitField(field)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names, nil
}

// Check reports syntax errors and malformed format specs without field
// values. Specs containing '%' may be strftime patterns for date fields and
// are only checked at render time.
func Check(template string) error {
	raw, err := rawFields(template)
	if err != nil {
		return err
	}
	for _, field := range raw {
		_, _, spec, err := splitField(field)
		if err != nil {
			return err
		}
		if spec == "" || strings.ContainsRune(spec, '%') {
			continue
		}
		if _, err := parseSpec(spec); err != nil {
			return err
		}
	}
	return nil
}

// rawFields returns the text between each pair of replacement braces.
func rawFields(template string) ([]string, error) {
	var fields []string
	for i := 0; i < len(template); i++ {
		switch template[i] {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unmatched '{' at offset %d", ErrInvalidTemplate, i)
			}
			fields = append(fields, template[i+1:i+1+end])
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				i++
				continue
			}
			return nil, fmt.Errorf("%w: single '}' at offset %d", ErrInvalidTemplate, i)
		}
	}
	return fields, nil
}

// splitField breaks "name.attr!conv:spec" into its parts. The returned name
// keeps any attribute suffix.
func splitField(field string) (name, conversion, spec string, err error) {
	name = field
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		name, spec = name[:idx], name[idx+1:]
	}
	if idx := strings.IndexByte(name, '!'); idx >= 0 {
		name, conversion = name[:idx], name[idx+1:]
		if conversion != "s" && conversion != "r" {
			return "", "", "", fmt.Errorf("%w: unsupported conversion %q in {%s}", ErrInvalidTemplate, conversion, field)
		}
	}
	base := name
	if idx := strings.IndexByte(base, '.'); idx >= 0 {
		base = base[:idx]
	}
	if base == "" || isDigits(base) {
		return "", "", "", fmt.Errorf("%w: positional field {%s} is not supported", ErrInvalidTemplate, field)
	}
	if strings.ContainsAny(name, "[]") {
		return "", "", "", fmt.Errorf("%w: index access in {%s} is not supported", ErrInvalidTemplate, field)
	}
	return name, conversion, spec, nil
}

func renderField(field string, fields Fields) (string, error) {
	name, conversion, spec, err := splitField(field)
	if err != nil {
		return "", err
	}

	base, attr, _ := strings.Cut(name, ".")
	value, ok := fields[base]
	if !ok || value == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingField, base)
	}
	if attr != "" {
		value, err = attribute(value, attr)
		if err != nil {
			return "", err
		}
	}

	switch conversion {
	case "s":
		value = stringValue(value)
	case "r":
		value = reprValue(value)
	}

	switch v := value.(type) {
	case string:
		return formatString(v, spec)
	case int:
		return formatInt(int64(v), spec)
	case int64:
		return formatInt(v, spec)
	case time.Time:
		return formatTime(v, spec), nil
	default:
		return "", fmt.Errorf("%w: field %s has unsupported type %T", ErrInvalidTemplate, base, value)
	}
}

func attribute(value any, attr string) (any, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("%w: %T has no attribute %q", ErrInvalidTemplate, value, attr)
	}
	switch attr {
	case "year":
		return t.Year(), nil
	case "month":
		return int(t.Month()), nil
	case "day":
		return t.Day(), nil
	case "hour":
		return t.Hour(), nil
	case "minute":
		return t.Minute(), nil
	case "second":
		return t.Second(), nil
	default:
		return nil, fmt.Errorf("%w: date has no attribute %q", ErrInvalidTemplate, attr)
	}
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format(DefaultTimeLayout)
	default:
		return fmt.Sprint(v)
	}
}

func reprValue(value any) string {
	switch v := value.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
	default:
		return stringValue(v)
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
