package dj

import (
	"regexp"
	"strings"
)

// Words too generic to carry meaning in a special request like
// "play some 90s hip hop for the birthday girl".
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "play": true, "some": true,
	"something": true, "songs": true, "song": true, "tracks": true, "track": true,
	"music": true, "with": true, "please": true, "lots": true, "more": true,
	"want": true, "like": true, "from": true, "that": true, "this": true,
	"would": true, "really": true, "about": true, "stuff": true, "vibe": true,
	"vibes": true, "party": true, "mix": true,
}

var wordSplit = regexp.MustCompile(`[^a-z0-9&]+`)

// requestKeywords extracts the meaningful words from a free-text request:
// lowercase, >= 3 characters, stopword-filtered.
func requestKeywords(request string) []string {
	var keywords []string
	for _, w := range wordSplit.Split(strings.ToLower(request), -1) {
		if len(w) < 3 || stopwords[w] {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// keywordMatches reports whether any keyword (or its naive plural/singular
// variant) appears in the haystack.
func keywordMatches(keywords []string, haystack string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
		// "bangers" should still match a track tagged "banger"
		if strings.HasSuffix(kw, "s") && len(kw) > 3 && strings.Contains(haystack, strings.TrimSuffix(kw, "s")) {
			return true
		}
	}
	return false
}
