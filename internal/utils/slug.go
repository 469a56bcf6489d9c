package utils

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9]+`)
	repeatedDashes = regexp.MustCompile(`-{2,}`)
)

// Slugify derives a URL-safe slug from a title: lowercased, non-alphanumeric
// runs collapsed to single dashes, trimmed to a sane length.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	slug = repeatedDashes.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > 100 {
		slug = strings.Trim(slug[:100], "-")
	}
	if slug == "" {
		slug = "untitled"
	}
	return slug
}
