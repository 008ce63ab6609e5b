package domain

import "strings"

// ValidatePaymentToken checks that the token is card-number shaped: 13 to 19
// digits, with spaces and dashes allowed as separators. Real payment
// processing is delegated elsewhere; this only rejects obvious garbage before
// an order is committed.
func ValidatePaymentToken(token string) error {
	digits := 0
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '-':
		default:
			return &ValidationError{Field: "payment_token", Reason: "contains non-digit characters"}
		}
	}
	if digits < 13 || digits > 19 {
		return &ValidationError{Field: "payment_token", Reason: "must contain 13 to 19 digits"}
	}
	return nil
}

// MaskPaymentToken keeps only the last four digits. Orders never store the
// full token.
func MaskPaymentToken(token string) string {
	var digits []byte
	for _, r := range token {
		if r >= '0' && r <= '9' {
			digits = append(digits, byte(r))
		}
	}
	if len(digits) <= 4 {
		return "****"
	}
	return "**** **** **** " + string(digits[len(digits)-4:])
}

// ValidateShipAddress rejects empty and whitespace-only addresses.
func ValidateShipAddress(address string) error {
	if strings.TrimSpace(address) == "" {
		return &ValidationError{Field: "ship_address", Reason: "must not be empty"}
	}
	return nil
}
