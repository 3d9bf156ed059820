package service

import (
	"regexp"
	"strings"
)

// stopWords are dropped during keyword extraction. Immutable configuration
// data for the classifier; do not mutate at runtime.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "can": {}, "to": {}, "of": {},
	"in": {}, "for": {}, "on": {}, "with": {}, "at": {}, "by": {}, "from": {},
	"as": {}, "into": {}, "through": {}, "about": {}, "what": {}, "which": {},
	"who": {}, "whom": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"am": {}, "or": {}, "and": {}, "but": {}, "if": {}, "then": {}, "so": {},
	"than": {}, "too": {}, "very": {}, "just": {}, "how": {}, "why": {},
	"when": {}, "where": {}, "there": {}, "here": {}, "all": {}, "each": {},
	"every": {}, "both": {}, "few": {}, "more": {}, "most": {}, "other": {},
	"some": {}, "such": {}, "no": {}, "not": {}, "only": {}, "own": {},
	"same": {}, "any": {}, "tell": {}, "me": {}, "i": {}, "my": {}, "you": {},
	"your": {}, "we": {}, "our": {},
}

var nonWordPattern = regexp.MustCompile(`[^\w\s]`)

// selectionPatterns match the user picking from a previously offered list
// ("2", "the first one", "option 3"). These must never be treated as vague,
// even though they carry almost no keywords.
var selectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[1-9]$`),
	regexp.MustCompile(`^(option|number|choice|#)\s*[1-9]`),
	regexp.MustCompile(`^(first|second|third|fourth|fifth)(\s+one)?$`),
	regexp.MustCompile(`^the\s+(first|second|third|fourth|fifth)(\s+one)?$`),
	regexp.MustCompile(`^[1-9]\s*(st|nd|rd|th)?\s*(one|option)?$`),
}

// followUpPatterns match requests for elaboration on something specific.
var followUpPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^tell me (more )?about[:\s]`),
	regexp.MustCompile(`^more (info|details|information) (on|about)[:\s]`),
	regexp.MustCompile(`^explain[:\s]`),
	regexp.MustCompile(`^what (is|are)[:\s]`),
	regexp.MustCompile(`^show me[:\s]`),
	regexp.MustCompile(`^i (want|choose|pick|select)`),
	regexp.MustCompile(`^(give me|show|expand)`),
}

// vaguePatterns match whole queries broad enough to warrant disambiguation.
var vaguePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(what|tell me|show|give|list).{0,10}(about|all|everything|topics?|covered|available|have)$`),
	regexp.MustCompile(`^(what).{0,5}(is|are).{0,5}(this|here|available)$`),
	regexp.MustCompile(`^(summarize|overview|summary)$`),
	regexp.MustCompile(`^(help|info|information)$`),
	regexp.MustCompile(`^(what do you (know|have))$`),
}

var numericPattern = regexp.MustCompile(`^\d+$`)

// ExtractKeywords tokenizes a query to lowercase words, strips punctuation,
// and drops stop words and words of length <= 2.
func ExtractKeywords(query string) []string {
	cleaned := nonWordPattern.ReplaceAllString(strings.ToLower(query), " ")

	var keywords []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

// IsVagueQuery reports whether a query is too unspecific to answer directly
// and should trigger disambiguation instead. Selection and follow-up
// patterns are checked before the brevity rule so that a bare "2" picking an
// option is never flagged vague.
func IsVagueQuery(query string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(query))

	for _, p := range selectionPatterns {
		if p.MatchString(trimmed) {
			return false
		}
	}

	for _, p := range followUpPatterns {
		if p.MatchString(trimmed) {
			return false
		}
	}

	keywords := ExtractKeywords(query)
	if len(keywords) <= 1 && !strings.Contains(query, ":") && !numericPattern.MatchString(trimmed) {
		return true
	}

	for _, p := range vaguePatterns {
		if p.MatchString(trimmed) {
			return true
		}
	}

	return false
}
