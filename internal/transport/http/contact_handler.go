package httptransport

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"photosite/backend/internal/domain"
	"photosite/backend/internal/middleware"
	"photosite/backend/internal/service"
)

// HeaderVisitorTicket 挂载表单时携带访客票据的请求头
const HeaderVisitorTicket = "X-Visitor-Ticket"

// ContactHandler 联系表单处理器
type ContactHandler struct {
	contacts *service.ContactService
	siteURL  string
	logger   *zap.Logger
}

// NewContactHandler 创建联系表单处理器
func NewContactHandler(contacts *service.ContactService, siteURL string, logger *zap.Logger) *ContactHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactHandler{
		contacts: contacts,
		siteURL:  siteURL,
		logger:   logger,
	}
}

type mountResponse struct {
	Ticket          string   `json:"ticket"`
	VisitorTicket   string   `json:"visitorTicket"`
	Token           string   `json:"token"`
	StartedAt       int64    `json:"startedAt"` // 毫秒时间戳
	Honeypots       []string `json:"honeypots"`
	MinDwellSeconds int      `json:"minDwellSeconds"`
	CooldownSeconds int      `json:"cooldownSeconds"`
}

type submissionResponse struct {
	Outcome           domain.OutcomeKind `json:"outcome"`
	Field             string             `json:"field,omitempty"`
	RetryAfterSeconds int                `json:"retryAfterSeconds,omitempty"`
	Token             string             `json:"token,omitempty"`
	StartedAt         int64              `json:"startedAt,omitempty"`
}

// Mount godoc
// @Summary 挂载联系表单
// @Description 生成新的会话令牌并记录表单开始时间，返回提交所需的会话票据
// @Tags Contact
// @Produce json
// @Param X-Visitor-Ticket header string false "上次返回的访客票据"
// @Success 201 {object} Response{data=mountResponse}
// @Failure 500 {object} Response
// @Router /v1/contact/sessions [post]
func (h *ContactHandler) Mount(c *gin.Context) {
	result, err := h.contacts.Mount(c.Request.Context(), c.GetHeader(HeaderVisitorTicket))
	if err != nil {
		h.logger.Error("failed to mount contact form", zap.Error(err))
		InternalError(c, MsgMountFailed)
		return
	}

	policy := h.contacts.Policy()
	Created(c, mountResponse{
		Ticket:          result.Ticket,
		VisitorTicket:   result.VisitorTicket,
		Token:           result.Token,
		StartedAt:       result.StartedAt.UnixMilli(),
		Honeypots:       []string{domain.HoneypotWebsite, domain.HoneypotSubject2},
		MinDwellSeconds: int(policy.MinDwell / time.Second),
		CooldownSeconds: int(policy.Cooldown / time.Second),
	})
}

// Submit godoc
// @Summary 提交联系表单
// @Description 依次执行蜜罐、停留时间、令牌、冷却、邮箱、电话检查，通过后投递站长通知与自动回复
// @Tags Contact
// @Accept json
// @Produce json
// @Security SessionTicket
// @Param request body domain.FormPayload true "表单字段"
// @Success 200 {object} Response{data=submissionResponse}
// @Failure 400 {object} Response "spam"
// @Failure 401 {object} Response
// @Failure 409 {object} Response
// @Failure 410 {object} Response
// @Failure 422 {object} Response{data=submissionResponse}
// @Failure 429 {object} Response{data=submissionResponse}
// @Failure 502 {object} Response
// @Router /v1/contact/submissions [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	claims, ok := middleware.TicketClaims(c)
	if !ok {
		Unauthorized(c, MsgTicketRequired)
		return
	}

	var form domain.FormPayload
	if err := c.ShouldBindJSON(&form); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	result, err := h.contacts.Submit(c.Request.Context(), service.SubmitInput{
		Claims:    claims,
		Form:      form,
		PageURL:   h.pageURL(c),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInFlight):
			Conflict(c, GetErrorMessage(err))
		case errors.Is(err, service.ErrSessionExpired):
			Gone(c, GetErrorMessage(err))
		case isTicketError(err):
			Unauthorized(c, GetErrorMessage(err))
		default:
			h.logger.Error("contact submission failed", zap.Error(err))
			InternalError(c, MsgInternalError)
		}
		return
	}

	h.writeOutcome(c, result)
}

// writeOutcome 将闸门判定映射为 HTTP 响应
func (h *ContactHandler) writeOutcome(c *gin.Context, result *service.SubmitResult) {
	outcome := result.Outcome
	data := submissionResponse{Outcome: outcome.Kind}

	switch outcome.Kind {
	case domain.OutcomeAccepted:
		data.Token = result.Token
		data.StartedAt = result.StartedAt.UnixMilli()
		SuccessWithMsg(c, MsgSent, data)

	case domain.OutcomeRate:
		retryAfter := int(math.Ceil(outcome.RetryAfter.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		data.RetryAfterSeconds = retryAfter
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		cooldown := int(h.contacts.Policy().Cooldown / time.Second)
		ErrorWithData(c, http.StatusTooManyRequests, fmt.Sprintf(MsgRateFormat, cooldown), data)

	case domain.OutcomeValidationError:
		data.Field = outcome.Field
		ErrorWithData(c, http.StatusUnprocessableEntity, outcome.Message, data)

	case domain.OutcomeDeliveryFailure:
		ErrorWithData(c, http.StatusBadGateway, MsgGenericFailure, data)

	default:
		// spam 不透露命中的规则
		ErrorWithData(c, http.StatusBadRequest, MsgSpam, submissionResponse{Outcome: domain.OutcomeSpam})
	}
}

// pageURL 优先使用 Referer，缺失时回退到站点根地址
func (h *ContactHandler) pageURL(c *gin.Context) string {
	if referer := c.GetHeader("Referer"); referer != "" {
		return referer
	}
	return h.siteURL + "/"
}
