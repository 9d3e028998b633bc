package sms

import (
	"unicode/utf16"
)

// UnicodePolicy controls whether a text may be sent as UCS-2.
type UnicodePolicy int

const (
	// UnicodeAuto sends as UCS-2 only if the text contains characters outside GSM-7.
	UnicodeAuto UnicodePolicy = iota
	// UnicodeAllow behaves like UnicodeAuto.
	UnicodeAllow
	// UnicodeForbid always sends as GSM-7, substituting characters outside the alphabet.
	UnicodeForbid
)

// PolicyFromAllowUnicode maps an optional allow flag to a policy: nil is UnicodeAuto.
func PolicyFromAllowUnicode(allow *bool) UnicodePolicy {
	switch {
	case allow == nil:
		return UnicodeAuto
	case *allow:
		return UnicodeAllow
	}
	return UnicodeForbid
}

// Encoding is the character encoding a text is sent in.
type Encoding int

const (
	EncodingGSM7 Encoding = iota
	EncodingUCS2
)

func (e Encoding) String() string {
	if e == EncodingUCS2 {
		return "UCS-2"
	}
	return "GSM-7"
}

const (
	gsm7SingleBytes   = 140
	gsm7PartSeptets   = 153
	ucs2SingleUnits   = 70
	ucs2PartCodeUnits = 67
)

// Result describes the segmentation of a text.
type Result struct {
	Parts    int
	Encoding Encoding
	// NonGSM7 lists the characters that cannot be encoded in GSM-7, in order of appearance.
	NonGSM7 []rune
	// UnicodeForbidden is true if the text needed UCS-2 but the policy forbade it. The text will
	// be sent with substituted characters.
	UnicodeForbidden bool
}

// Counter segments texts using a configurable set of masking delimiters. The zero value uses
// DefaultDelimiter.
type Counter struct {
	Delimiters []string
}

func (c Counter) unmask(text string) string {
	if len(c.Delimiters) == 0 {
		return Unmask(text)
	}
	return UnmaskWith(text, c.Delimiters...)
}

// Count unmasks text and computes its segmentation under policy.
func (c Counter) Count(text string, policy UnicodePolicy) Result {
	unmasked := c.unmask(text)
	result := Result{NonGSM7: nonGSM7(unmasked)}
	needsUnicode := len(result.NonGSM7) > 0
	if needsUnicode && policy != UnicodeForbid {
		result.Encoding = EncodingUCS2
		result.Parts = ucs2Parts(unmasked)
	} else {
		result.Encoding = EncodingGSM7
		result.Parts = gsm7Parts(unmasked)
		result.UnicodeForbidden = needsUnicode
	}
	return result
}

// Parts returns the number of parts text occupies under policy.
func (c Counter) Parts(text string, policy UnicodePolicy) int {
	return c.Count(text, policy).Parts
}

// NonGSM7Characters returns the characters of the unmasked text that cannot be encoded in GSM-7.
func (c Counter) NonGSM7Characters(text string) []rune {
	return nonGSM7(c.unmask(text))
}

var defaultCounter Counter

// Count segments text using the default delimiter.
func Count(text string, policy UnicodePolicy) Result {
	return defaultCounter.Count(text, policy)
}

// Parts returns the number of parts text occupies under policy. The result is at least 1, even for
// empty text.
func Parts(text string, policy UnicodePolicy) int {
	return defaultCounter.Parts(text, policy)
}

// NonGSM7Characters returns the characters of the unmasked text that cannot be encoded in GSM-7.
// Callers use it to warn about substitution before sending with UnicodeForbid.
func NonGSM7Characters(text string) []rune {
	return defaultCounter.NonGSM7Characters(text)
}

// IsGSM7 returns true if every character of text can be encoded in GSM-7. The text is not unmasked.
func IsGSM7(text string) bool {
	for _, r := range text {
		if !IsGSM7Rune(r) {
			return false
		}
	}
	return true
}

// SeptetCount returns the number of septets text occupies in GSM-7. The text is not unmasked.
func SeptetCount(text string) int {
	count := 0
	for _, r := range text {
		count += septets(r)
	}
	return count
}

func nonGSM7(text string) []rune {
	var found []rune
	for _, r := range text {
		if !IsGSM7Rune(r) {
			found = append(found, r)
		}
	}
	return found
}

func gsm7Parts(text string) int {
	if (SeptetCount(text)*7+7)/8 <= gsm7SingleBytes {
		return 1
	}
	count := 1
	current := 0
	for _, r := range text {
		size := septets(r)
		if current+size > gsm7PartSeptets {
			count++
			current = 0
		}
		current += size
	}
	return count
}

func ucs2Parts(text string) int {
	units := utf16.Encode([]rune(text))
	if len(units) <= ucs2SingleUnits {
		return 1
	}
	count := 1
	current := 0
	for i := 0; i < len(units); i++ {
		pair := utf16.IsSurrogate(rune(units[i])) && units[i] < 0xdc00
		if current == ucs2PartCodeUnits || (current == ucs2PartCodeUnits-1 && pair) {
			count++
			current = 0
		}
		current++
	}
	return count
}
