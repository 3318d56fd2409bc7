package domain

import (
	"strconv"
	"time"
)

// 表单字段名（与前端 input name 保持一致）
const (
	FieldEmail = "email"
	FieldPhone = "phone_local"

	HoneypotWebsite  = "website"
	HoneypotSubject2 = "subject2"
)

// DefaultSubject 未填写主题时使用的默认主题
const DefaultSubject = "Website inquiry"

// CountryCode 电话区号选项
type CountryCode struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// CountryCodes 表单提供的电话区号，第一项为默认值
var CountryCodes = []CountryCode{
	{Label: "Canada/USA (+1)", Value: "+1"},
	{Label: "UK (+44)", Value: "+44"},
	{Label: "Australia (+61)", Value: "+61"},
	{Label: "New Zealand (+64)", Value: "+64"},
	{Label: "Germany (+49)", Value: "+49"},
}

// InterestOptions 表单中的作品尺寸选项
var InterestOptions = []string{
	"24×36 — $249",
	"30×40 — $349",
	"36×48 — $549",
	"Other / Not sure",
}

// FormPayload 联系表单提交的原始字段
//
// 所有字段都是 HTML 表单字符串，浏览器端的 required/pattern 仅作提示，
// 以提交闸门的校验结果为准。Website 与 Subject2 是对真人不可见的蜜罐字段。
type FormPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Interest    string `json:"interest"`
	Quantity    string `json:"quantity"`
	CountryCode string `json:"phone_cc"`
	PhoneLocal  string `json:"phone_local"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`

	Website  string `json:"website"`
	Subject2 string `json:"subject2"`

	Nonce string `json:"__nonce"`
}

// SessionState 一次表单挂载对应的会话状态
//
// Token 与 StartedAt 在挂载时生成，成功投递后一起轮换；
// LastAcceptedAt 属于访客级状态，零值表示从未成功提交过。
type SessionState struct {
	SessionID      string
	VisitorID      string
	Token          string
	StartedAt      time.Time
	LastAcceptedAt time.Time
}

// FormSession 存储中的表单会话记录
type FormSession struct {
	ID        string    `json:"id"`
	VisitorID string    `json:"visitorId"`
	Token     string    `json:"token"`
	StartedAt time.Time `json:"startedAt"`
}

// OutcomeKind 提交闸门的判定结果类型
type OutcomeKind string

const (
	OutcomeAccepted        OutcomeKind = "accepted"
	OutcomeSpam            OutcomeKind = "spam"
	OutcomeRate            OutcomeKind = "rate"
	OutcomeValidationError OutcomeKind = "validation-error"
	OutcomeDeliveryFailure OutcomeKind = "delivery-failure" // 通过闸门但中继发送失败
)

// Outcome 提交闸门的判定结果，每次评估恰好产生一个
type Outcome struct {
	Kind OutcomeKind

	// 校验失败时的字段与提示
	Field   string
	Message string

	// 冷却中时距离下次可提交的剩余时间
	RetryAfter time.Duration

	// 通过时的规范化载荷
	Submission *Submission
}

// Accepted 是否通过闸门
func (o Outcome) Accepted() bool {
	return o.Kind == OutcomeAccepted
}

// Submission 通过闸门后的规范化载荷
type Submission struct {
	Name        string
	Email       string
	Interest    string
	Quantity    string
	CountryCode string
	PhoneLocal  string // 仅数字，未填写时为空
	Phone       string // "+1 (604) 123-4567"，未填写时为空
	Subject     string
	Message     string

	SubmittedInSeconds int64  // 从表单可交互到提交的耗时（四舍五入到秒）
	Nonce              string // 提交时的会话令牌，用于追踪
}

// DeliveryContext 投递时附带的请求上下文
type DeliveryContext struct {
	PageURL     string
	UserAgent   string
	OwnerName   string
	SubmittedAt time.Time
}

// TemplateParams 生成邮件模板参数
//
// 未填写电话时 phone、phone_local、phone_country 三个字段全部省略。
func (s *Submission) TemplateParams(dc DeliveryContext) map[string]string {
	params := map[string]string{
		"from_name":            s.Name,
		"from_email":           s.Email,
		"reply_to":             s.Email,
		"interest":             s.Interest,
		"quantity":             s.Quantity,
		"subject":              s.Subject,
		"message":              s.Message,
		"page_url":             dc.PageURL,
		"user_agent":           dc.UserAgent,
		"to_name":              dc.OwnerName,
		"date_time":            dc.SubmittedAt.Format("2006-01-02 15:04:05 MST"),
		"submitted_in_seconds": strconv.FormatInt(s.SubmittedInSeconds, 10),
		"nonce":                s.Nonce,
	}

	if s.Phone != "" {
		params["phone_country"] = s.CountryCode
		params["phone_local"] = s.PhoneLocal
		params["phone"] = s.Phone
	}

	return params
}
