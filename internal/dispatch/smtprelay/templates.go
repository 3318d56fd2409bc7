package smtprelay

// 内置模板 ID
const (
	TemplateOwner     = "owner"
	TemplateAutoReply = "autoreply"
)

// Template 一封邮件的模板，各字段都是 text/template 语法，数据为投递参数
//
// To 为空时发往 SMTPConfig.OwnerAddress。
type Template struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

// DefaultTemplates 返回内置的站长通知和自动回复模板
func DefaultTemplates() map[string]Template {
	return map[string]Template{
		TemplateOwner: {
			ReplyTo: "{{.reply_to}}",
			Subject: "New inquiry: {{.subject}}",
			Body: `Hi {{.to_name}},

You have a new message from the website contact form.

Name:      {{.from_name}}
Email:     {{.from_email}}
{{- if .phone}}
Phone:     {{.phone}}
{{- end}}
Interest:  {{.interest}}
Quantity:  {{.quantity}}
Subject:   {{.subject}}

{{.message}}

--
Sent {{.date_time}} from {{.page_url}}
Filled in {{.submitted_in_seconds}}s, ref {{.nonce}}
User agent: {{.user_agent}}
`,
		},
		TemplateAutoReply: {
			To:      "{{.from_email}}",
			Subject: "Thanks for reaching out, {{.from_name}}",
			Body: `Hi {{.from_name}},

Thanks for your message about "{{.subject}}". I'll get back to you soon.

{{.to_name}}
`,
		},
	}
}
