package linguistic

import (
	"strings"
	"unicode"
)

var (
	turkishOnes = [...]string{"", "bir", "iki", "üç", "dört", "beş", "altı", "yedi", "sekiz", "dokuz"}
	turkishTens = [...]string{"", "on", "yirmi", "otuz", "kırk", "elli", "altmış", "yetmiş", "seksen", "doksan"}

	// turkishScales[i] names 10^(3*i)
	turkishScales = [...]string{
		"", "bin", "milyon", "milyar", "trilyon", "katrilyon", "kentilyon",
		"seksilyon", "septilyon", "oktilyon", "nonilyon", "desilyon",
	}
)

const turkishZero = "sıfır"

// DigitsToWords spells out a digit-only token as Turkish cardinal words:
// "2022" -> "iki bin yirmi iki", "40" -> "kırk". Leading zeros are ignored.
// Numbers past the largest scale word are read digit by digit.
// Tokens containing anything other than decimal digits are returned unchanged.
func (t *Turkish) DigitsToWords(token string) string {
	digits, ok := decimalDigits(token)
	if !ok {
		return token
	}

	// Drop leading zeros
	start := 0
	for start < len(digits)-1 && digits[start] == 0 {
		start++
	}
	digits = digits[start:]

	if len(digits) == 1 && digits[0] == 0 {
		return turkishZero
	}

	if len(digits) > 3*len(turkishScales) {
		return spellDigits(digits)
	}

	// Split into groups of three from the right
	var groups [][]int
	for end := len(digits); end > 0; end -= 3 {
		begin := end - 3
		if begin < 0 {
			begin = 0
		}
		groups = append([][]int{digits[begin:end]}, groups...)
	}

	words := make([]string, 0, len(groups)*4)
	for i, group := range groups {
		scale := len(groups) - 1 - i
		value := groupValue(group)
		if value == 0 {
			continue
		}
		// Turkish says "bin", not "bir bin"
		if !(scale == 1 && value == 1) {
			words = append(words, hundredsToWords(value)...)
		}
		if scale > 0 {
			words = append(words, turkishScales[scale])
		}
	}

	return strings.Join(words, " ")
}

func hundredsToWords(value int) []string {
	var words []string

	hundreds, rest := value/100, value%100
	if hundreds > 0 {
		// "yüz", not "bir yüz"
		if hundreds > 1 {
			words = append(words, turkishOnes[hundreds])
		}
		words = append(words, "yüz")
	}

	if tens := rest / 10; tens > 0 {
		words = append(words, turkishTens[tens])
	}
	if ones := rest % 10; ones > 0 {
		words = append(words, turkishOnes[ones])
	}

	return words
}

func groupValue(group []int) int {
	value := 0
	for _, d := range group {
		value = value*10 + d
	}
	return value
}

func spellDigits(digits []int) string {
	words := make([]string, len(digits))
	for i, d := range digits {
		if d == 0 {
			words[i] = turkishZero
		} else {
			words[i] = turkishOnes[d]
		}
	}
	return strings.Join(words, " ")
}

// decimalDigits returns the values of every rune in token, or false if any rune
// is not a decimal digit. Non-ASCII digits (e.g. Arabic-Indic) are supported.
func decimalDigits(token string) ([]int, bool) {
	if token == "" {
		return nil, false
	}

	digits := make([]int, 0, len(token))
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return nil, false
		}
		digits = append(digits, digitValue(r))
	}

	return digits, true
}

// digitValue relies on Unicode allocating decimal digits in contiguous runs
// starting at zero, so the offset from the start of the run gives the value.
func digitValue(r rune) int {
	if r >= '0' && r <= '9' {
		return int(r - '0')
	}

	offset := 0
	for unicode.IsDigit(r - rune(offset) - 1) {
		offset++
	}
	return offset % 10
}
