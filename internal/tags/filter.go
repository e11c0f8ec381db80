package tags

import "strings"

// MaxTagsPerQuestion bounds the tags a question may carry.
const MaxTagsPerQuestion = 5

// Normalize trims and lower-cases a tag.
func Normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeAll normalizes tags, dropping blanks and duplicates.
func NormalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = Normalize(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ParseFilter reads a comma separated tag filter such as "react,css".
func ParseFilter(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return NormalizeAll(strings.Split(raw, ","))
}
