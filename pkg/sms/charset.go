package sms

const (
	gsm7BaseChars = "@£$¥èéùìòÇ\nØø\rÅåΔ_ΦΓΛΩΠΨΣΘΞÆæßÉ !\"#¤%&'()*+,-./0123456789:;<=>?" +
		"¡ABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÑÜ§¿abcdefghijklmnopqrstuvwxyzäöñüà"
	gsm7ExtendedChars = "\f^{}\\[~]|€"
)

var (
	gsm7Base     = runeSet(gsm7BaseChars)
	gsm7Extended = runeSet(gsm7ExtendedChars)
)

func runeSet(chars string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(chars))
	for _, r := range chars {
		set[r] = struct{}{}
	}
	return set
}

func isBase(r rune) bool {
	_, ok := gsm7Base[r]
	return ok
}

func isExtended(r rune) bool {
	_, ok := gsm7Extended[r]
	return ok
}

// IsGSM7Rune returns true if r can be encoded in GSM-7, either directly or through the extension
// table.
func IsGSM7Rune(r rune) bool {
	return isBase(r) || isExtended(r)
}

// septets returns the number of septets r occupies in GSM-7. Characters outside the alphabet are
// counted as a single substituted septet.
func septets(r rune) int {
	if isExtended(r) {
		return 2
	}
	return 1
}
