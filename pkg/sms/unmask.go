package sms

import (
	"regexp"
	"sync"
)

// DefaultDelimiter marks spans that are exempt from character substitution.
const DefaultDelimiter = "~~"

var (
	unmaskPatterns     = map[string]*regexp.Regexp{DefaultDelimiter: compileDelimiter(DefaultDelimiter)}
	unmaskPatternsLock sync.Mutex
)

func compileDelimiter(delimiter string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(delimiter)
	return regexp.MustCompile(quoted + `([\s\S]+?)` + quoted)
}

func delimiterPattern(delimiter string) *regexp.Regexp {
	unmaskPatternsLock.Lock()
	defer unmaskPatternsLock.Unlock()

	pattern, ok := unmaskPatterns[delimiter]
	if !ok {
		pattern = compileDelimiter(delimiter)
		unmaskPatterns[delimiter] = pattern
	}
	return pattern
}

// Unmask removes the ~~ delimiters around masked spans, keeping the enclosed text. Matching is
// non-greedy and spans may cross line breaks. Unpaired delimiters are left in place.
func Unmask(text string) string {
	return UnmaskWith(text, DefaultDelimiter)
}

// UnmaskWith is like Unmask but strips each of the given delimiters in turn. Empty delimiters are
// ignored.
func UnmaskWith(text string, delimiters ...string) string {
	for _, delimiter := range delimiters {
		if delimiter == "" || text == "" {
			continue
		}
		text = delimiterPattern(delimiter).ReplaceAllString(text, "$1")
	}
	return text
}
