package slug

import (
	"path"
	"regexp"
	"strings"
)

var (
	slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)
	extRegexp  = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)
)

var latinReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i", "ı", "i",
	"ó", "o", "ò", "o", "ô", "o", "ö", "o", "õ", "o", "ø", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n", "ş", "s", "ğ", "g", "ß", "ss",
)

// Generate creates a URL-friendly slug from the given name.
//
// Examples:
//   - "Summer Promo" → "summer-promo"
//   - "Café Niño" → "cafe-nino"
//   - "Hello   World!" → "hello-world"
func Generate(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = latinReplacer.Replace(slug)

	// Replace any non-alphanumeric run with a single hyphen
	slug = slugRegexp.ReplaceAllString(slug, "-")

	return strings.Trim(slug, "-")
}

// FileName slugs the base of a file name and keeps a short extension, so
// "Hero Banner (final).JPG" becomes "hero-banner-final.jpg". An empty base
// falls back to "file".
func FileName(name string) string {
	name = strings.TrimSpace(name)
	ext := strings.ToLower(path.Ext(name))
	base := strings.TrimSuffix(name, path.Ext(name))
	if !extRegexp.MatchString(ext) {
		base, ext = name, ""
	}

	slug := Generate(base)
	if slug == "" {
		slug = "file"
	}
	return slug + ext
}
