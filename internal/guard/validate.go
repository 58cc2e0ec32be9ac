package guard

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spec-kit/support-chat/internal/domain"
)

// ErrInvalidInput matches every ValidationError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError reports a rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets callers test for the whole category.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Limits bounds the accepted input sizes.
type Limits struct {
	CustomerIDMin int
	CustomerIDMax int
	NameMax       int
	MessageMax    int
}

// DefaultLimits mirror what the chat widget produces.
var DefaultLimits = Limits{
	CustomerIDMin: 8,
	CustomerIDMax: 64,
	NameMax:       50,
	MessageMax:    2000,
}

// Validator holds the configured bounds. Every method is pure.
type Validator struct {
	limits Limits
}

// NewValidator builds a validator; zero fields take DefaultLimits values.
func NewValidator(limits Limits) Validator {
	if limits.CustomerIDMin <= 0 {
		limits.CustomerIDMin = DefaultLimits.CustomerIDMin
	}
	if limits.CustomerIDMax <= 0 {
		limits.CustomerIDMax = DefaultLimits.CustomerIDMax
	}
	if limits.NameMax <= 0 {
		limits.NameMax = DefaultLimits.NameMax
	}
	if limits.MessageMax <= 0 {
		limits.MessageMax = DefaultLimits.MessageMax
	}
	return Validator{limits: limits}
}

// ValidateCustomerID accepts ASCII letters, digits, '-' and '_' within bounds.
func (v Validator) ValidateCustomerID(id string) error {
	if id == "" {
		return invalid("user_id", "required")
	}
	if len(id) < v.limits.CustomerIDMin || len(id) > v.limits.CustomerIDMax {
		return invalid("user_id", fmt.Sprintf("length must be %d-%d", v.limits.CustomerIDMin, v.limits.CustomerIDMax))
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return invalid("user_id", "only letters, digits, '-' and '_' allowed")
		}
	}
	return nil
}

// ValidateDisplayName bounds a customer-chosen name.
func (v Validator) ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name", "required")
	}
	if !utf8.ValidString(name) {
		return invalid("name", "must be valid utf-8")
	}
	if utf8.RuneCountInString(name) > v.limits.NameMax {
		return invalid("name", fmt.Sprintf("max length %d", v.limits.NameMax))
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return invalid("name", "control characters not allowed")
	}
	return nil
}

// ValidateMessage bounds a text message body. Newlines and tabs are allowed.
func (v Validator) ValidateMessage(content string) error {
	if strings.TrimSpace(content) == "" {
		return invalid("content", "required")
	}
	if !utf8.ValidString(content) {
		return invalid("content", "must be valid utf-8")
	}
	if utf8.RuneCountInString(content) > v.limits.MessageMax {
		return invalid("content", fmt.Sprintf("max length %d", v.limits.MessageMax))
	}
	if strings.IndexFunc(content, func(r rune) bool {
		return unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t'
	}) >= 0 {
		return invalid("content", "control characters not allowed")
	}
	return nil
}

// ValidateSenderRole accepts the two conversation sides.
func ValidateSenderRole(role domain.SenderRole) error {
	switch role {
	case domain.SenderCustomer, domain.SenderAdmin:
		return nil
	}
	return invalid("sender_type", "must be customer or admin")
}

// ValidateContentKind accepts known message kinds.
func ValidateContentKind(kind domain.ContentKind) error {
	switch kind {
	case domain.ContentText, domain.ContentImage, domain.ContentVoice:
		return nil
	}
	return invalid("message_type", "must be text, image or voice")
}

// ValidateExtension checks filename's extension against allowed, ignoring case
// and a leading dot in the allow-list entries.
func ValidateExtension(filename string, allowed []string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return invalid("file", "missing extension")
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == ext {
			return nil
		}
	}
	return invalid("file", fmt.Sprintf("extension %q not allowed", ext))
}
