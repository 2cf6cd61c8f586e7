package disclosure

import "strings"

// visibleSuffixDigits is how many trailing digits of a contact number
// stay readable in the masked form shown before a reveal.
const visibleSuffixDigits = 3

// MaskPhone redacts a contact number, keeping the formatting characters
// (plus sign, spaces, dashes) and the last few digits so the holder can
// sanity-check "is this the right person" before spending a reveal
// token. Everything else becomes an asterisk.
func MaskPhone(phone string) string {
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits == 0 {
		return phone
	}
	hidden := digits - visibleSuffixDigits
	if hidden < 0 {
		hidden = 0
	}
	var b strings.Builder
	b.Grow(len(phone))
	seen := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			if seen < hidden {
				b.WriteByte('*')
			} else {
				b.WriteRune(r)
			}
			seen++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
