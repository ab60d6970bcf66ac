package engine

import "strings"

// pluralRule strips one plural suffix from a normalized name.
type pluralRule struct {
	suffix  string
	replace string
	// unless lists suffixes that keep the rule from firing.
	unless []string
}

func (r pluralRule) matches(s string) bool {
	if !strings.HasSuffix(s, r.suffix) {
		return false
	}
	for _, u := range r.unless {
		if strings.HasSuffix(s, u) {
			return false
		}
	}
	return true
}

func (r pluralRule) apply(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(s, r.suffix) + r.replace)
}

// pluralRules is tested top to bottom; the first match is applied and no
// further rule runs. Known limitation: words such as "gas" or "bases" are
// mis-stemmed ("ga", "bas").
var pluralRules = []pluralRule{
	{suffix: "oes", replace: "o"},
	{suffix: "oe", replace: "o"},
	{suffix: "ies", replace: "y"},
	{suffix: "ves", replace: "f"},
	{suffix: "es", replace: ""},
	{suffix: "s", replace: "", unless: []string{"ss", "us"}},
}

var quoteStripper = strings.NewReplacer(
	`"`, "",
	"'", "",
	"‘", "",
	"’", "",
	"“", "",
	"”", "",
	"-", " ",
	"_", " ",
)

// Normalize canonicalizes a free-text item name into the key used to decide
// whether two names refer to the same logical item. The key is never shown
// to users.
func Normalize(name string) string {
	s := strings.ToLower(name)
	s = quoteStripper.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}

	for _, rule := range pluralRules {
		if rule.matches(s) {
			return rule.apply(s)
		}
	}
	return s
}

// sameDisplayName reports whether two display names differ only by case or
// surrounding whitespace.
func sameDisplayName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
