package keyline

import (
	"fmt"
	"net/mail"
)

const minPasswordLength = 8

// validateCredentials checks input shape before any side effect.
func validateCredentials(email, pass string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: malformed email", ErrValidation)
	}
	if len(pass) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	return nil
}
