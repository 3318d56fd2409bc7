package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	v := NewContactValidator("gmail.com", 10)

	tests := []struct {
		name     string
		email    string
		expected bool
	}{
		{"点号和加号地址有效", "a.b+c@gmail.com", true},
		{"大写地址有效", "USER@GMAIL.COM", true},
		{"百分号和连字符有效", "first-last%x@gmail.com", true},
		{"顶级域名错误", "user@gmail.co", false},
		{"多余的域名标签", "user@Gmail.com.au", false},
		{"其他邮箱服务商", "user@yahoo.com", false},
		{"子域名", "user@mail.gmail.com", false},
		{"本地部分为空", "@gmail.com", false},
		{"包含空格", "us er@gmail.com", false},
		{"空地址", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateEmail(tt.email)
			if tt.expected {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrEmailNotAllowed)
			}
		})
	}
}

func TestValidateEmail_CustomDomain(t *testing.T) {
	v := NewContactValidator("Studio.Example", 10)

	assert.NoError(t, v.ValidateEmail("client@studio.example"))
	assert.Error(t, v.ValidateEmail("client@studioXexample"))
	assert.Error(t, v.ValidateEmail("client@gmail.com"))
	assert.Equal(t, "Please enter a valid studio.example address (example@studio.example).", v.EmailMessage())
}

func TestNormalizePhone(t *testing.T) {
	v := NewContactValidator("gmail.com", 10)

	tests := []struct {
		name    string
		raw     string
		digits  string
		wantErr bool
	}{
		{"十位纯数字", "4165551234", "4165551234", false},
		{"带格式的十位号码", "(416) 555-1234", "4165551234", false},
		{"空号码可选", "", "", false},
		{"仅标点视为空", " - ", "", false},
		{"八位号码", "41655512", "", true},
		{"十一位号码", "14165551234", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			digits, err := v.NormalizePhone(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPhoneInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.digits, digits)
		})
	}
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "(416) 555-1234", FormatLocalPhone("4165551234"))
	assert.Equal(t, "+1 (604) 123-4567", FormatPhone("+1", "6041234567"))
	assert.Equal(t, "12345", FormatLocalPhone("12345"))
}

func TestMessages(t *testing.T) {
	v := NewContactValidator("gmail.com", 10)
	assert.Equal(t, "Please enter a valid Gmail address (example@gmail.com).", v.EmailMessage())
	assert.Equal(t, "Phone number must be exactly 10 digits (local number).", v.PhoneMessage())
}

func TestSubmission_TemplateParams(t *testing.T) {
	dc := DeliveryContext{
		PageURL:     "https://www.example.com/",
		UserAgent:   "test-agent",
		OwnerName:   "Dakoda",
		SubmittedAt: time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC),
	}

	t.Run("包含电话", func(t *testing.T) {
		s := &Submission{
			Name:               "Jane",
			Email:              "jane.doe@gmail.com",
			CountryCode:        "+1",
			PhoneLocal:         "6041234567",
			Phone:              "+1 (604) 123-4567",
			Subject:            DefaultSubject,
			SubmittedInSeconds: 10,
			Nonce:              "tok",
		}

		params := s.TemplateParams(dc)
		assert.Equal(t, "jane.doe@gmail.com", params["reply_to"])
		assert.Equal(t, "+1 (604) 123-4567", params["phone"])
		assert.Equal(t, "+1", params["phone_country"])
		assert.Equal(t, "10", params["submitted_in_seconds"])
		assert.Equal(t, "tok", params["nonce"])
		assert.Equal(t, "Dakoda", params["to_name"])
		assert.Equal(t, "2025-05-01 10:30:00 UTC", params["date_time"])
	})

	t.Run("未填写电话时省略电话字段", func(t *testing.T) {
		s := &Submission{Email: "jane.doe@gmail.com", CountryCode: "+1"}

		params := s.TemplateParams(dc)
		assert.NotContains(t, params, "phone")
		assert.NotContains(t, params, "phone_local")
		assert.NotContains(t, params, "phone_country")
	})
}
