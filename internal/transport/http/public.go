package httptransport

import (
	"time"

	"github.com/gin-gonic/gin"

	"photosite/backend/internal/domain"
	"photosite/backend/internal/gate"
)

// PublicHandler 公开API处理器（无需认证）
type PublicHandler struct {
	policy gate.Policy
}

// NewPublicHandler 创建公开API处理器
func NewPublicHandler(policy gate.Policy) *PublicHandler {
	return &PublicHandler{
		policy: policy,
	}
}

type formConfigResponse struct {
	CountryCodes       []domain.CountryCode `json:"countryCodes"`
	DefaultCountryCode string               `json:"defaultCountryCode"`
	Interests          []string             `json:"interests"`
	EmailDomain        string               `json:"emailDomain"`
	PhoneDigits        int                  `json:"phoneDigits"`
	MinDwellSeconds    int                  `json:"minDwellSeconds"`
	CooldownSeconds    int                  `json:"cooldownSeconds"`
	Honeypots          []string             `json:"honeypots"`
}

// GetFormConfig godoc
// @Summary 获取联系表单配置
// @Description 获取前端渲染联系表单所需的区号、尺寸选项与校验阈值（公开接口，无需认证）
// @Tags Public
// @Produce json
// @Success 200 {object} Response{data=formConfigResponse}
// @Router /v1/public/config [get]
func (h *PublicHandler) GetFormConfig(c *gin.Context) {
	Success(c, formConfigResponse{
		CountryCodes:       domain.CountryCodes,
		DefaultCountryCode: h.policy.DefaultCountryCode,
		Interests:          domain.InterestOptions,
		EmailDomain:        h.policy.AllowedEmailDomain,
		PhoneDigits:        h.policy.PhoneDigits,
		MinDwellSeconds:    int(h.policy.MinDwell / time.Second),
		CooldownSeconds:    int(h.policy.Cooldown / time.Second),
		Honeypots:          []string{domain.HoneypotWebsite, domain.HoneypotSubject2},
	})
}
