package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// 验证相关的错误定义
var (
	ErrEmailNotAllowed = errors.New("email does not match the allowed domain")
	ErrPhoneInvalid    = errors.New("phone number has the wrong number of digits")
)

var nonDigitRegex = regexp.MustCompile(`\D`)

// ContactValidator 联系表单字段验证器
//
// 邮箱只接受单一域名：(local-part)@<domain>，不区分大小写；
// 电话号码去掉非数字字符后必须恰好为 phoneDigits 位。
type ContactValidator struct {
	emailDomain  string
	emailPattern *regexp.Regexp
	phoneDigits  int
}

// NewContactValidator 创建验证器
//
// 参数:
//   - emailDomain: 允许的邮箱域名，如 "gmail.com"
//   - phoneDigits: 本地电话号码位数
func NewContactValidator(emailDomain string, phoneDigits int) *ContactValidator {
	emailDomain = strings.ToLower(strings.TrimSpace(emailDomain))
	return &ContactValidator{
		emailDomain:  emailDomain,
		emailPattern: regexp.MustCompile(`(?i)^[A-Za-z0-9._%+-]+@` + regexp.QuoteMeta(emailDomain) + `$`),
		phoneDigits:  phoneDigits,
	}
}

// ValidateEmail 验证邮箱是否属于允许的域名
func (v *ContactValidator) ValidateEmail(email string) error {
	if !v.emailPattern.MatchString(email) {
		return ErrEmailNotAllowed
	}
	return nil
}

// NormalizePhone 去掉电话号码中的非数字字符并校验位数
//
// 返回值:
//   - string: 纯数字号码，输入为空（或不含数字）时返回空串
//   - error: 位数不符时返回 ErrPhoneInvalid
func (v *ContactValidator) NormalizePhone(raw string) (string, error) {
	digits := nonDigitRegex.ReplaceAllString(raw, "")
	if digits == "" {
		return "", nil
	}
	if len(digits) != v.phoneDigits {
		return "", ErrPhoneInvalid
	}
	return digits, nil
}

// EmailMessage 邮箱校验失败时展示给用户的提示
func (v *ContactValidator) EmailMessage() string {
	brand := v.emailDomain
	if v.emailDomain == "gmail.com" {
		brand = "Gmail"
	}
	return fmt.Sprintf("Please enter a valid %s address (example@%s).", brand, v.emailDomain)
}

// PhoneMessage 电话校验失败时展示给用户的提示
func (v *ContactValidator) PhoneMessage() string {
	return fmt.Sprintf("Phone number must be exactly %d digits (local number).", v.phoneDigits)
}

// FormatLocalPhone 将 10 位号码格式化为 (AAA) BBB-CCCC，其他位数原样返回
func FormatLocalPhone(digits string) string {
	if len(digits) != 10 {
		return digits
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
}

// FormatPhone 拼接国家区号与格式化后的本地号码，如 "+1 (604) 123-4567"
func FormatPhone(countryCode, digits string) string {
	return countryCode + " " + FormatLocalPhone(digits)
}
