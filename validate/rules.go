package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// The address check is loose and unanchored: some non-space
// text, '@', some non-space text, '.', some non-space text.
var emailShape = regexp.MustCompile(`\S+@\S+\.\S+`)

// EmailShape reports whether s looks like an email address.
func EmailShape(s string) bool {
	return emailShape.MatchString(s)
}

// blank reports whether v carries no content. Numbers and booleans are
// never blank.
func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []byte:
		return len(strings.TrimSpace(string(x))) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func ruleRequired(value any, _ string) string {
	if blank(value) {
		return "required"
	}
	return ""
}

// ruleEmail passes blank values; pair it with required.
func ruleEmail(value any, _ string) string {
	if blank(value) {
		return ""
	}
	var s string
	switch x := value.(type) {
	case string:
		s = x
	case fmt.Stringer:
		s = x.String()
	default:
		s = fmt.Sprint(x)
	}
	if EmailShape(s) {
		return ""
	}
	return "email"
}

func ruleAccepted(value any, _ string) string {
	if b, _ := value.(bool); b {
		return ""
	}
	return "accepted"
}
