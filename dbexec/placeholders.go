package dbexec

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ReplacePlaceholders replaces every {{key}} token in the query with the
// string form of placeholders[key]. Tokens without a corresponding entry
// are left untouched.
func ReplacePlaceholders(query string, placeholders map[string]any) string {
	if len(placeholders) == 0 {
		return query
	}
	result := query
	for key, value := range placeholders {
		marker := "{{" + key + "}}"
		result = strings.ReplaceAll(result, marker, fmt.Sprint(value))
	}
	return result
}

// MissingPlaceholders returns the {{...}} token names present in the query
// that have no corresponding placeholder entry, in query order. Callers use
// it to fail fast before executing.
func MissingPlaceholders(query string, placeholders map[string]any) []string {
	matches := placeholderPattern.FindAllStringSubmatch(query, -1)
	var missing []string
	seen := make(map[string]bool)
	for _, m := range matches {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := placeholders[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
