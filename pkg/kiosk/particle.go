package kiosk

import "unicode/utf8"

// hasBatchim reports whether the last syllable of s ends in a consonant.
func hasBatchim(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	if r < 0xAC00 || r > 0xD7A3 {
		return false
	}
	return (r-0xAC00)%28 != 0
}

// eul appends the object particle: 을 after a consonant, 를 otherwise.
func eul(s string) string {
	if hasBatchim(s) {
		return s + "을"
	}
	return s + "를"
}

// eun appends the topic particle: 은 after a consonant, 는 otherwise.
func eun(s string) string {
	if hasBatchim(s) {
		return s + "은"
	}
	return s + "는"
}
