// Package gate 实现联系表单的提交闸门。
//
// 闸门是一个纯函数：输入表单字段、会话状态和当前时间，按固定顺序执行检查，
// 在第一个失败处短路，恰好返回一个判定结果。评估过程不读写任何外部状态，
// 调用方负责加载会话状态并在投递成功后更新冷却时间与轮换令牌。
package gate

import (
	"math"
	"strings"
	"time"

	"photosite/backend/internal/domain"
)

// Policy 闸门阈值
type Policy struct {
	MinDwell           time.Duration // 最短停留时间
	Cooldown           time.Duration // 成功提交后的冷却时间
	AllowedEmailDomain string        // 唯一允许的邮箱域名
	PhoneDigits        int           // 本地电话位数
	DefaultCountryCode string        // 未选择区号时使用
}

// DefaultPolicy 返回默认阈值：3 秒停留、30 秒冷却、仅限 Gmail、10 位电话
func DefaultPolicy() Policy {
	return Policy{
		MinDwell:           3 * time.Second,
		Cooldown:           30 * time.Second,
		AllowedEmailDomain: "gmail.com",
		PhoneDigits:        10,
		DefaultCountryCode: "+1",
	}
}

// Gate 提交闸门，创建后不可变，可并发使用
type Gate struct {
	policy    Policy
	validator *domain.ContactValidator
}

// New 根据阈值创建闸门
func New(policy Policy) *Gate {
	if policy.PhoneDigits <= 0 {
		policy.PhoneDigits = 10
	}
	if policy.DefaultCountryCode == "" {
		policy.DefaultCountryCode = "+1"
	}
	return &Gate{
		policy:    policy,
		validator: domain.NewContactValidator(policy.AllowedEmailDomain, policy.PhoneDigits),
	}
}

// Policy 返回闸门使用的阈值
func (g *Gate) Policy() Policy {
	return g.policy
}

// Evaluate 评估一次提交
//
// 检查顺序：
//  1. 蜜罐字段非空 -> spam
//  2. 停留时间不足 -> spam
//  3. 令牌不匹配 -> spam
//  4. 冷却时间内 -> rate
//  5. 邮箱格式 -> validation-error(email)
//  6. 电话位数 -> validation-error(phone)
//  7. 通过 -> accepted，携带规范化载荷
func (g *Gate) Evaluate(form domain.FormPayload, state domain.SessionState, now time.Time) domain.Outcome {
	if strings.TrimSpace(form.Website) != "" || strings.TrimSpace(form.Subject2) != "" {
		return domain.Outcome{Kind: domain.OutcomeSpam}
	}

	elapsed := now.Sub(state.StartedAt)
	if state.StartedAt.IsZero() || elapsed < g.policy.MinDwell {
		return domain.Outcome{Kind: domain.OutcomeSpam}
	}

	// 没有生成过令牌的会话不可能提交合法表单
	if state.Token == "" || form.Nonce != state.Token {
		return domain.Outcome{Kind: domain.OutcomeSpam}
	}

	if !state.LastAcceptedAt.IsZero() {
		if since := now.Sub(state.LastAcceptedAt); since < g.policy.Cooldown {
			// 时钟回拨时最多等待一个完整冷却期
			since = max(since, 0)
			return domain.Outcome{
				Kind:       domain.OutcomeRate,
				RetryAfter: g.policy.Cooldown - since,
			}
		}
	}

	email := strings.TrimSpace(form.Email)
	if err := g.validator.ValidateEmail(email); err != nil {
		return domain.Outcome{
			Kind:    domain.OutcomeValidationError,
			Field:   domain.FieldEmail,
			Message: g.validator.EmailMessage(),
		}
	}

	digits, err := g.validator.NormalizePhone(form.PhoneLocal)
	if err != nil {
		return domain.Outcome{
			Kind:    domain.OutcomeValidationError,
			Field:   domain.FieldPhone,
			Message: g.validator.PhoneMessage(),
		}
	}

	countryCode := strings.TrimSpace(form.CountryCode)
	if countryCode == "" {
		countryCode = g.policy.DefaultCountryCode
	}

	subject := form.Subject
	if subject == "" {
		subject = domain.DefaultSubject
	}

	submission := &domain.Submission{
		Name:               form.Name,
		Email:              email,
		Interest:           form.Interest,
		Quantity:           form.Quantity,
		CountryCode:        countryCode,
		Subject:            subject,
		Message:            form.Message,
		SubmittedInSeconds: int64(math.Round(elapsed.Seconds())),
		Nonce:              state.Token,
	}
	if digits != "" {
		submission.PhoneLocal = digits
		submission.Phone = domain.FormatPhone(countryCode, digits)
	}

	return domain.Outcome{
		Kind:       domain.OutcomeAccepted,
		Submission: submission,
	}
}
