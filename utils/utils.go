package utils

import (
	rndm "math/rand"
	"strings"
)

var digitRunes = []rune("0123456789")

// GenerateRandomDigitString creates a random numeric string of length n.
func GenerateRandomDigitString(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = digitRunes[rndm.Intn(len(digitRunes))]
	}
	return string(b)
}

// NormalizeTier lowercases and trims a tier name from user input.
func NormalizeTier(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
