// Package smtprelay 通过 SMTP 服务器发送联系表单通知，作为 EmailJS 之外的中继。
package smtprelay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"text/template"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"photosite/backend/internal/config"
)

var (
	// ErrUnknownTemplate 模板未注册
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrNoRecipient 渲染后收件人为空
	ErrNoRecipient = errors.New("template rendered an empty recipient")
)

// SendFunc 与 smtp.SendMail 签名一致，便于测试替换
type SendFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

type compiledTemplate struct {
	to      *template.Template
	replyTo *template.Template
	subject *template.Template
	body    *template.Template
}

// Sender SMTP 中继
type Sender struct {
	cfg       config.SMTPConfig
	templates map[string]compiledTemplate
	sendMail  SendFunc
	now       func() time.Time
}

// NewSender 创建 SMTP 中继并编译模板
//
// 参数:
//   - cfg: SMTP 连接配置
//   - templates: 模板 ID 到模板的映射，通常来自 DefaultTemplates
func NewSender(cfg config.SMTPConfig, templates map[string]Template) (*Sender, error) {
	s := &Sender{
		cfg:       cfg,
		templates: make(map[string]compiledTemplate, len(templates)),
		sendMail:  smtp.SendMail,
		now:       time.Now,
	}

	for id, tpl := range templates {
		compiled, err := compile(id, tpl)
		if err != nil {
			return nil, err
		}
		s.templates[id] = compiled
	}

	return s, nil
}

// Register 以新的 ID 注册已有模板，用于把配置中的模板 ID 指向内置模板
func (s *Sender) Register(id, existing string) error {
	tpl, ok := s.templates[existing]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, existing)
	}
	s.templates[id] = tpl
	return nil
}

// Send 渲染模板并通过 SMTP 发送
//
// smtp.SendMail 不支持 context，取消时立即返回，后台连接在超时后自行结束。
func (s *Sender) Send(ctx context.Context, templateID string, params map[string]string) error {
	msg, to, err := s.render(templateID, params)
	if err != nil {
		return err
	}

	var auth sasl.Client
	if s.cfg.Username != "" {
		auth = sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(s.cfg.Addr, auth, s.cfg.From, []string{to}, bytes.NewReader(msg))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send via %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// render 生成完整的 RFC 5322 邮件，返回邮件内容和收件人
func (s *Sender) render(templateID string, params map[string]string) ([]byte, string, error) {
	tpl, ok := s.templates[templateID]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}

	to := s.cfg.OwnerAddress
	if tpl.to != nil {
		rendered, err := execute(tpl.to, params)
		if err != nil {
			return nil, "", err
		}
		to = rendered
	}
	to = headerValue(to)
	if to == "" {
		return nil, "", ErrNoRecipient
	}

	subject, err := execute(tpl.subject, params)
	if err != nil {
		return nil, "", err
	}
	body, err := execute(tpl.body, params)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	writeHeader(&buf, "From", s.cfg.From)
	writeHeader(&buf, "To", to)
	if tpl.replyTo != nil {
		replyTo, err := execute(tpl.replyTo, params)
		if err != nil {
			return nil, "", err
		}
		if replyTo = headerValue(replyTo); replyTo != "" {
			writeHeader(&buf, "Reply-To", replyTo)
		}
	}
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", headerValue(subject)))
	writeHeader(&buf, "Date", s.now().Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), senderDomain(s.cfg.From)))
	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Content-Type", "text/plain; charset=UTF-8")
	writeHeader(&buf, "Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))

	return buf.Bytes(), to, nil
}

func compile(id string, tpl Template) (compiledTemplate, error) {
	parse := func(field, text string) (*template.Template, error) {
		if text == "" {
			return nil, nil
		}
		t, err := template.New(id + "." + field).Option("missingkey=zero").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse template %s.%s: %w", id, field, err)
		}
		return t, nil
	}

	var (
		c   compiledTemplate
		err error
	)
	if c.to, err = parse("to", tpl.To); err != nil {
		return c, err
	}
	if c.replyTo, err = parse("reply_to", tpl.ReplyTo); err != nil {
		return c, err
	}
	if c.subject, err = parse("subject", tpl.Subject); err != nil {
		return c, err
	}
	if c.body, err = parse("body", tpl.Body); err != nil {
		return c, err
	}
	if c.subject == nil || c.body == nil {
		return c, fmt.Errorf("template %s: subject and body are required", id)
	}
	return c, nil
}

func execute(t *template.Template, params map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("render template %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// headerValue 去掉换行，防止头部注入
func headerValue(v string) string {
	v = strings.ReplaceAll(v, "\r", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	return strings.TrimSpace(v)
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func senderDomain(from string) string {
	from = strings.TrimSuffix(strings.TrimSpace(from), ">")
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		return from[i+1:]
	}
	return "localhost"
}
