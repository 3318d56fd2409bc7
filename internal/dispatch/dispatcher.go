// Package dispatch 将通过闸门的联系表单投递给邮件中继。
//
// 一次投递包含两条通知：发给站长的通知和发给访客的自动回复。两条通知并发发送，
// 全部成功才算投递成功；任何失败都被转换为不透明的 ErrDeliveryFailed，
// 中继返回的原始错误只写入日志。
package dispatch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrDeliveryFailed 投递失败
var ErrDeliveryFailed = errors.New("delivery failed")

// 通知类型
const (
	NotificationOwner     = "owner"
	NotificationAutoReply = "autoreply"
)

// Sender 邮件中继客户端
type Sender interface {
	Send(ctx context.Context, templateID string, params map[string]string) error
}

// Recorder 记录每条通知的发送耗时和结果
type Recorder interface {
	RecordDelivery(notification string, duration time.Duration, err error)
}

// Templates 中继模板 ID
type Templates struct {
	Owner     string
	AutoReply string // 为空时不发送自动回复
}

// Dispatcher 投递分发器
type Dispatcher struct {
	sender    Sender
	templates Templates
	timeout   time.Duration
	recorder  Recorder
	logger    *zap.Logger
}

// Option 分发器选项
type Option func(*Dispatcher)

// WithTimeout 为整次投递设置超时，0 表示不限制
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithRecorder 设置指标记录器
func WithRecorder(recorder Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = recorder
	}
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher 创建投递分发器
func NewDispatcher(sender Sender, templates Templates, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:    sender,
		templates: templates,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deliver 并发发送站长通知和自动回复，等待两者完成
//
// 两条通知共用同一份参数。任意一条失败时返回 ErrDeliveryFailed，
// 此时另一条可能已经送达，调用方不应据此更新冷却时间。
func (d *Dispatcher) Deliver(ctx context.Context, params map[string]string) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	// 一条失败不取消另一条
	var g errgroup.Group

	g.Go(func() error {
		return d.send(ctx, NotificationOwner, d.templates.Owner, params)
	})

	if d.templates.AutoReply != "" {
		g.Go(func() error {
			return d.send(ctx, NotificationAutoReply, d.templates.AutoReply, params)
		})
	}

	if err := g.Wait(); err != nil {
		return ErrDeliveryFailed
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, notification, templateID string, params map[string]string) error {
	start := time.Now()
	err := d.sender.Send(ctx, templateID, params)
	duration := time.Since(start)

	if d.recorder != nil {
		d.recorder.RecordDelivery(notification, duration, err)
	}

	if err != nil {
		d.logger.Error("relay send failed",
			zap.String("notification", notification),
			zap.String("template", templateID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return err
	}

	d.logger.Debug("relay send succeeded",
		zap.String("notification", notification),
		zap.Duration("duration", duration),
	)
	return nil
}
