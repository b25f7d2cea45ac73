package ndexpress

import (
	"net/http"
	"regexp"
	"strings"
)

var emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
var nonDigitRE = regexp.MustCompile(`\D`)

// validateSignUp rejects obviously malformed registrations before they hit
// the network. The server runs the same checks.
func validateSignUp(name, email, cpf, senha string) error {
	switch {
	case strings.TrimSpace(name) == "" || email == "" || cpf == "" || senha == "":
		return validationError("name, email, cpf and senha are required")
	case !emailRE.MatchString(email):
		return validationError("invalid email format")
	case !validCPF(cpf):
		return validationError("invalid cpf")
	case len(senha) < 6:
		return validationError("senha must be at least 6 characters")
	}
	return nil
}

func validationError(message string) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "invalid request",
		Message:    message,
	}
}

// validCPF checks the CPF length, the all-same-digit degenerate cases, and
// both check digits.
func validCPF(cpf string) bool {
	digits := nonDigitRE.ReplaceAllString(cpf, "")
	if len(digits) != 11 {
		return false
	}
	if strings.Count(digits, string(digits[0])) == 11 {
		return false
	}

	if cpfCheckDigit(digits[:9], 10) != int(digits[9]-'0') {
		return false
	}
	return cpfCheckDigit(digits[:10], 11) == int(digits[10]-'0')
}

func cpfCheckDigit(digits string, weight int) int {
	sum := 0
	for _, r := range digits {
		sum += int(r-'0') * weight
		weight--
	}
	rest := 11 - sum%11
	if rest >= 10 {
		return 0
	}
	return rest
}
