package interpreter

import (
	"regexp"
	"strings"
)

var (
	tagPattern   = regexp.MustCompile(`#\w+`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// ExtractTags returns the hashtag labels found in text, without the leading
// '#', in order of first appearance. Duplicates are dropped.
func ExtractTags(text string) []string {
	matches := tagPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.TrimPrefix(m, "#")
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// StripTags removes hashtag tokens from text, collapses the leftover
// whitespace and trims the result.
func StripTags(text string) string {
	out := tagPattern.ReplaceAllString(text, "")
	out = spacePattern.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
