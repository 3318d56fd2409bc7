package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"photosite/backend/internal/auth"
	"photosite/backend/internal/domain"
	"photosite/backend/internal/gate"
	"photosite/backend/internal/storage"
)

var (
	// ErrSessionExpired 表单会话已过期，需要重新挂载
	ErrSessionExpired = errors.New("form session expired")
	// ErrInFlight 同一会话已有提交在投递中
	ErrInFlight = errors.New("submission already in flight")
)

const (
	// defaultDeliveryTimeout 未配置投递时限时使用
	defaultDeliveryTimeout = 30 * time.Second
	// inFlightMargin 投递占用在投递时限之外多保留的时间
	inFlightMargin = 30 * time.Second
)

// Deliverer 投递通过闸门的表单
type Deliverer interface {
	Deliver(ctx context.Context, params map[string]string) error
}

// ContactRecorder 记录联系表单指标
type ContactRecorder interface {
	RecordSessionMounted()
	RecordOutcome(outcome string)
	RecordDwell(seconds int64)
}

// ContactService 封装联系表单的挂载与提交流程。
//
// 闸门本身是纯函数，会话状态由本服务加载后传入；
// 只有挂载和投递成功后的轮换会修改状态。
type ContactService struct {
	store      storage.Store
	gate       *gate.Gate
	dispatcher Deliverer
	tickets    *auth.TicketManager
	sessionTTL time.Duration
	ownerName  string
	recorder   ContactRecorder
	logger     *zap.Logger
	now        func() time.Time
	newOwner   func() string

	deliveryTimeout time.Duration
	inFlightTTL     time.Duration
	cooldownTTL     time.Duration
}

// ContactServiceOptions 联系表单服务依赖
type ContactServiceOptions struct {
	Store      storage.Store
	Gate       *gate.Gate
	Dispatcher Deliverer
	Tickets    *auth.TicketManager
	SessionTTL time.Duration
	OwnerName  string
	Recorder   ContactRecorder // 可选
	Logger     *zap.Logger     // 可选

	// DeliveryTimeout 单次投递的最长时间，<= 0 时使用 30 秒
	DeliveryTimeout time.Duration
}

// NewContactService 创建联系表单服务。
func NewContactService(opts ContactServiceOptions) *ContactService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	deliveryTimeout := opts.DeliveryTimeout
	if deliveryTimeout <= 0 {
		deliveryTimeout = defaultDeliveryTimeout
	}
	return &ContactService{
		store:      opts.Store,
		gate:       opts.Gate,
		dispatcher: opts.Dispatcher,
		tickets:    opts.Tickets,
		sessionTTL: opts.SessionTTL,
		ownerName:  opts.OwnerName,
		recorder:   opts.Recorder,
		logger:     logger,
		now:        time.Now,
		newOwner:   uuid.NewString,

		deliveryTimeout: deliveryTimeout,
		// 占用的过期时间总是长于投递时限
		inFlightTTL: deliveryTimeout + inFlightMargin,
		// 冷却记录过期前冷却期一定已经结束
		cooldownTTL: opts.Gate.Policy().Cooldown + time.Minute,
	}
}

// MountResult 表单挂载结果
type MountResult struct {
	VisitorTicket string
	Ticket        string
	Token         string
	StartedAt     time.Time
}

// Mount 挂载表单：生成会话令牌并记录开始时间。
//
// visitorTicket 有效时沿用其中的访客 ID，否则分配新的访客 ID。
func (s *ContactService) Mount(ctx context.Context, visitorTicket string) (*MountResult, error) {
	visitorID := ""
	if visitorTicket != "" {
		if id, err := s.tickets.ParseVisitor(visitorTicket); err == nil {
			visitorID = id
		}
	}
	if visitorID == "" {
		visitorID = uuid.NewString()
	}

	session := &domain.FormSession{
		ID:        uuid.NewString(),
		VisitorID: visitorID,
		Token:     uuid.NewString(),
		StartedAt: s.now(),
	}
	if err := s.store.SaveSession(ctx, session, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	result, err := s.issue(session)
	if err != nil {
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.RecordSessionMounted()
	}
	return result, nil
}

// SubmitInput 提交输入
type SubmitInput struct {
	Claims    *auth.Claims // 已校验的会话票据
	Form      domain.FormPayload
	PageURL   string
	UserAgent string
}

// SubmitResult 提交结果
//
// Outcome.Kind 为 accepted 时 Token、StartedAt 是轮换后的新会话值。
type SubmitResult struct {
	Outcome   domain.Outcome
	Token     string
	StartedAt time.Time
}

// Submit 评估并投递一次提交。
//
// 闸门拒绝和投递失败都通过 Outcome 返回；error 只表示票据、会话或存储问题。
func (s *ContactService) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	claims := input.Claims
	if claims == nil || claims.SessionID == "" {
		return nil, auth.ErrInvalidTicket
	}

	owner := s.newOwner()
	acquired, err := s.store.AcquireInFlight(ctx, claims.SessionID, owner, s.inFlightTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire in-flight: %w", err)
	}
	if !acquired {
		s.recordOutcome("in-flight")
		return nil, ErrInFlight
	}
	defer func() {
		if err := s.store.ReleaseInFlight(context.WithoutCancel(ctx), claims.SessionID, owner); err != nil {
			s.logger.Warn("failed to release in-flight guard",
				zap.String("session", claims.SessionID), zap.Error(err))
		}
	}()

	session, err := s.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.VisitorID != claims.VisitorID {
		return nil, auth.ErrInvalidTicket
	}

	lastAccepted, err := s.store.GetLastAccepted(ctx, session.VisitorID)
	if err != nil {
		return nil, fmt.Errorf("load last accepted: %w", err)
	}

	now := s.now()
	outcome := s.gate.Evaluate(input.Form, domain.SessionState{
		SessionID:      session.ID,
		VisitorID:      session.VisitorID,
		Token:          session.Token,
		StartedAt:      session.StartedAt,
		LastAcceptedAt: lastAccepted,
	}, now)

	if !outcome.Accepted() {
		s.recordOutcome(string(outcome.Kind))
		s.logger.Info("contact submission rejected",
			zap.String("outcome", string(outcome.Kind)),
			zap.String("field", outcome.Field),
			zap.String("session", session.ID),
		)
		return &SubmitResult{Outcome: outcome}, nil
	}

	params := outcome.Submission.TemplateParams(domain.DeliveryContext{
		PageURL:     input.PageURL,
		UserAgent:   input.UserAgent,
		OwnerName:   s.ownerName,
		SubmittedAt: now,
	})

	deliverCtx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	err = s.dispatcher.Deliver(deliverCtx, params)
	cancel()
	if err != nil {
		s.recordOutcome(string(domain.OutcomeDeliveryFailure))
		s.logger.Error("contact delivery failed",
			zap.String("session", session.ID),
			zap.String("nonce", outcome.Submission.Nonce),
			zap.Error(err),
		)
		return &SubmitResult{Outcome: domain.Outcome{Kind: domain.OutcomeDeliveryFailure}}, nil
	}

	s.recordOutcome(string(domain.OutcomeAccepted))
	if s.recorder != nil {
		s.recorder.RecordDwell(outcome.Submission.SubmittedInSeconds)
	}

	// 投递已成功，之后的存储错误只记录日志
	deliveredAt := s.now()
	if err := s.store.SetLastAccepted(ctx, session.VisitorID, deliveredAt, s.cooldownTTL); err != nil {
		s.logger.Error("failed to persist last accepted timestamp",
			zap.String("visitor", session.VisitorID), zap.Error(err))
	}

	session.Token = uuid.NewString()
	session.StartedAt = deliveredAt
	if err := s.store.SaveSession(ctx, session, s.sessionTTL); err != nil {
		s.logger.Error("failed to rotate session token",
			zap.String("session", session.ID), zap.Error(err))
	}

	s.logger.Info("contact submission delivered",
		zap.String("session", session.ID),
		zap.Int64("submitted_in_seconds", outcome.Submission.SubmittedInSeconds),
	)

	return &SubmitResult{
		Outcome:   outcome,
		Token:     session.Token,
		StartedAt: session.StartedAt,
	}, nil
}

// Policy 返回闸门阈值
func (s *ContactService) Policy() gate.Policy {
	return s.gate.Policy()
}

func (s *ContactService) issue(session *domain.FormSession) (*MountResult, error) {
	visitorTicket, err := s.tickets.IssueVisitor(session.VisitorID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.IssueSession(session.VisitorID, session.ID)
	if err != nil {
		return nil, err
	}
	return &MountResult{
		VisitorTicket: visitorTicket,
		Ticket:        ticket,
		Token:         session.Token,
		StartedAt:     session.StartedAt,
	}, nil
}

func (s *ContactService) recordOutcome(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordOutcome(outcome)
	}
}
