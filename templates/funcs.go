package templates

import (
	"html/template"
	"strings"
)

// Funcs returns helpers available to all templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"lower": strings.ToLower,
		"join":  strings.Join,
		// {{ telHref "(323) 555-0192" }} → "tel:3235550192"
		"telHref": func(phone string) template.URL {
			var b strings.Builder
			for _, r := range phone {
				if (r >= '0' && r <= '9') || r == '+' {
					b.WriteRune(r)
				}
			}
			return template.URL("tel:" + b.String())
		},
		"mailtoHref": func(addr string) template.URL {
			return template.URL("mailto:" + addr)
		},
		// Returns class when cond is true; handy for error styling.
		"classIf": func(cond bool, class string) string {
			if cond {
				return class
			}
			return ""
		},
	}
}
