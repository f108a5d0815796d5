package envfigure

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Attribute keys understood in a field's clause.  Anything else is
// ignored so that clauses can carry keys meant for newer versions.
const (
	attrName    = "name"
	attrDefault = "default"
	attrHelp    = "help"
	attrParse   = "parse"
)

// parseAttributes turns a clause like
//
//	name="ZINC_FOO", default=true, help='foo, mostly'
//
// into a map from attribute key to raw value.  A key without "=" is a
// flag and maps to "".  When a key repeats, the last one wins.
func parseAttributes(clause string) (map[string]string, error) {
	attrs := make(map[string]string)
	segments, err := splitClause(clause)
	if err != nil {
		return nil, err
	}
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		rawKey, rawValue, hasValue := strings.Cut(segment, "=")
		key, err := unquote(strings.TrimSpace(rawKey))
		if err != nil {
			return nil, errors.Wrapf(err, "attribute key in %q", segment)
		}
		if key == "" {
			return nil, errors.Errorf("empty attribute key in %q", segment)
		}
		var value string
		if hasValue {
			value, err = unquote(strings.TrimSpace(rawValue))
			if err != nil {
				return nil, errors.Wrapf(err, "attribute %s", key)
			}
		}
		attrs[key] = value
	}
	return attrs, nil
}

// splitClause splits on commas that are not inside single or double
// quotes.  Inside double quotes a backslash escapes the next character.
func splitClause(clause string) ([]string, error) {
	var segments []string
	var quote rune
	var escaped bool
	start := 0
	for i, r := range clause {
		switch {
		case escaped:
			escaped = false
		case quote == '"' && r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ',':
			segments = append(segments, clause[start:i])
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, errors.Errorf("unterminated %c quote", quote)
	}
	return append(segments, clause[start:]), nil
}

// unquote removes one pair of surrounding quotes.  Double-quoted text
// follows Go escaping rules, single-quoted text is taken literally.
func unquote(s string) (string, error) {
	if s == "" || (s[0] != '"' && s[0] != '\'') {
		return s, nil
	}
	if len(s) < 2 || s[len(s)-1] != s[0] {
		return "", errors.Errorf("malformed quoted text %s", s)
	}
	if s[0] == '\'' {
		return s[1 : len(s)-1], nil
	}
	u, err := strconv.Unquote(s)
	if err != nil {
		return "", errors.Wrapf(err, "unquote %s", s)
	}
	return u, nil
}

// parseFlag interprets a bare flag ("") as true, otherwise the value
// must be a boolean literal.
func parseFlag(raw string) (bool, error) {
	if raw == "" {
		return true, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Errorf("%q is not a boolean", raw)
	}
	return b, nil
}
