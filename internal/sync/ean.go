package sync

import "fmt"

// ean13Prefix is the GS1 Brazil company prefix range used for
// internally generated auxiliary references.
const ean13Prefix = "789"

// GenerateEAN13 builds the variant auxiliary reference: prefix, a
// nine-digit payload derived from the seed, and the standard check
// digit.
func GenerateEAN13(seed int64) string {
	if seed < 0 {
		seed = -seed
	}
	payload := fmt.Sprintf("%s%09d", ean13Prefix, seed%1_000_000_000)
	return payload + string(rune('0'+ean13CheckDigit(payload)))
}

// ean13CheckDigit computes the modulo-10 check digit over the first 12
// digits, weights alternating 1 and 3.
func ean13CheckDigit(digits string) int {
	sum := 0
	for i, r := range digits {
		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}
