package validation

import (
	"fmt"
	"net/mail"
	"strings"
)

// MaxEmailLen максимальная длина email (RFC 5321)
const MaxEmailLen = 254

// ValidateEmail проверяет, что email синтаксически корректен
// Принимается только голый адрес, без отображаемого имени
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if len(email) > MaxEmailLen {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLen)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return fmt.Errorf("email is not a valid address")
	}

	return nil
}
