package guard

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/support-chat/internal/domain"
)

func TestValidateCustomerID(t *testing.T) {
	v := NewValidator(Limits{})

	cases := []struct {
		name string
		id   string
		ok   bool
	}{
		{"empty", "", false},
		{"too short", "abc", false},
		{"minimum", "abcd1234", true},
		{"maximum", strings.Repeat("a", 64), true},
		{"too long", strings.Repeat("a", 65), false},
		{"uuid like", "user_5f2b-9c1e-4a7d", true},
		{"space", "user 12345", false},
		{"control", "user\x0012345", false},
		{"slash", "../../etc/pw", false},
		{"unicode", "kullanıcı123", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateCustomerID(tc.id)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidInput)
			var ve *ValidationError
			if assert.True(t, errors.As(err, &ve)) {
				assert.Equal(t, "user_id", ve.Field)
			}
		})
	}
}

func TestValidateCustomerIDConfiguredMax(t *testing.T) {
	v := NewValidator(Limits{CustomerIDMax: 10})
	assert.NoError(t, v.ValidateCustomerID("abcdefghij"))
	assert.Error(t, v.ValidateCustomerID("abcdefghijk"))
}

func TestValidateDisplayName(t *testing.T) {
	v := NewValidator(Limits{})

	assert.NoError(t, v.ValidateDisplayName("Ayşe"))
	assert.NoError(t, v.ValidateDisplayName(strings.Repeat("ş", 50)))
	assert.Error(t, v.ValidateDisplayName("   "))
	assert.Error(t, v.ValidateDisplayName(strings.Repeat("a", 51)))
	assert.Error(t, v.ValidateDisplayName("bad\x07name"))
	assert.Error(t, v.ValidateDisplayName("\xff\xfe"))
}

func TestValidateMessage(t *testing.T) {
	v := NewValidator(Limits{MessageMax: 10})

	assert.NoError(t, v.ValidateMessage("hello"))
	assert.NoError(t, v.ValidateMessage("line\nline"))
	assert.NoError(t, v.ValidateMessage(strings.Repeat("ğ", 10)))
	assert.Error(t, v.ValidateMessage(""))
	assert.Error(t, v.ValidateMessage(" \n\t "))
	assert.Error(t, v.ValidateMessage(strings.Repeat("a", 11)))
	assert.Error(t, v.ValidateMessage("beep\x07"))
}

func TestValidateExtension(t *testing.T) {
	images := []string{"png", "jpg", "jpeg", "gif", "webp"}

	for _, name := range []string{"a.png", "photo.JPG", "x.y.webp", "dir/pic.jpeg"} {
		assert.NoError(t, ValidateExtension(name, images), name)
	}
	for _, name := range []string{"a.exe", "noext", "png", "a.png.sh", ""} {
		assert.ErrorIs(t, ValidateExtension(name, images), ErrInvalidInput, name)
	}

	assert.NoError(t, ValidateExtension("clip.ogg", []string{".OGG"}))
	assert.Error(t, ValidateExtension("clip.ogg", nil))
}

func TestValidateEnums(t *testing.T) {
	assert.NoError(t, ValidateSenderRole(domain.SenderCustomer))
	assert.NoError(t, ValidateSenderRole(domain.SenderAdmin))
	assert.Error(t, ValidateSenderRole("system"))

	assert.NoError(t, ValidateContentKind(domain.ContentVoice))
	assert.Error(t, ValidateContentKind("video"))
}
