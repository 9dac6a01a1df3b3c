package emitter

import (
	"strconv"
	"strings"
	"text/template"
)

// CustomFuncMap returns the custom template functions available in the
// emission templates, including user overrides.
func CustomFuncMap() template.FuncMap {
	return template.FuncMap{
		"quote":     strconv.Quote,
		"toLower":   strings.ToLower,
		"toUpper":   strings.ToUpper,
		"trimSpace": strings.TrimSpace,
		"hasPrefix": strings.HasPrefix,
		"hasSuffix": strings.HasSuffix,
		"join":      strings.Join,
		"indent": func(spaces int, s string) string {
			pad := strings.Repeat(" ", spaces)
			lines := strings.Split(s, "\n")
			for i, line := range lines {
				if line != "" {
					lines[i] = pad + line
				}
			}
			return strings.Join(lines, "\n")
		},
	}
}
