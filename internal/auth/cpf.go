package auth

import "strings"

// stripCPF removes every non-digit character.
func stripCPF(cpf string) string {
	var b strings.Builder
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF validates a Brazilian CPF: 11 digits, not all equal, and both
// checksum digits correct.
func ValidCPF(cpf string) bool {
	digits := stripCPF(cpf)
	if len(digits) != 11 {
		return false
	}

	allEqual := true
	for i := 1; i < 11; i++ {
		if digits[i] != digits[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return false
	}

	return int(digits[9]-'0') == cpfCheckDigit(digits, 9) &&
		int(digits[10]-'0') == cpfCheckDigit(digits, 10)
}

// cpfCheckDigit computes the checksum digit over the first n digits, with
// weights n+1 down to 2.
func cpfCheckDigit(digits string, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(digits[i]-'0') * (n + 1 - i)
	}
	rest := 11 - sum%11
	if rest >= 10 {
		return 0
	}
	return rest
}

// FormatCPF renders 11 bare digits as 000.000.000-00. Input that is not 11
// digits is returned unchanged.
func FormatCPF(cpf string) string {
	digits := stripCPF(cpf)
	if len(digits) != 11 {
		return cpf
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}
