package intent

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxPhoneDigits is the longest phone number accepted on the points screen.
const MaxPhoneDigits = 11

// MinPhoneDigits is the shortest phone number that can be confirmed.
const MinPhoneDigits = 10

var numberWords = map[string]byte{
	"공": '0', "영": '0', "제로": '0',
	"일": '1', "하나": '1', "한": '1',
	"이": '2', "둘": '2',
	"삼": '3', "셋": '3',
	"사": '4', "넷": '4',
	"오": '5', "다섯": '5',
	"육": '6', "륙": '6', "여섯": '6',
	"칠": '7', "일곱": '7',
	"팔": '8', "여덟": '8',
	"구": '9', "아홉": '9',
}

// numberWordOrder holds numberWords keys, longest first, so "일곱" is read
// as 7 rather than 1 followed by noise.
var numberWordOrder = func() []string {
	words := make([]string, 0, len(numberWords))
	for w := range numberWords {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	return words
}()

// ExtractDigits reads spoken Korean number words and ASCII digits out of a
// normalized transcript, in order. Everything else is skipped.
func ExtractDigits(normalized string) string {
	var b strings.Builder
	rest := normalized
	for rest != "" {
		if c := rest[0]; c >= '0' && c <= '9' {
			b.WriteByte(c)
			rest = rest[1:]
			continue
		}
		matched := false
		for _, w := range numberWordOrder {
			if strings.HasPrefix(rest, w) {
				b.WriteByte(numberWords[w])
				rest = rest[len(w):]
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		_, size := utf8.DecodeRuneInString(rest)
		rest = rest[size:]
	}
	return b.String()
}

// FormatPhone renders an 11 digit number as 010-1234-5678 and a 10 digit
// number as 011-123-4567. Other lengths are returned unchanged.
func FormatPhone(digits string) string {
	switch len(digits) {
	case 11:
		return digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
	case 10:
		return digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
	}
	return digits
}
