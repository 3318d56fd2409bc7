package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"photosite/backend/internal/auth"
)

// ContextKeyTicketClaims 会话票据声明在 gin.Context 中的键
const ContextKeyTicketClaims = "ticketClaims"

// TicketAuth 会话票据认证中间件
type TicketAuth struct {
	tickets *auth.TicketManager
	log     *zap.Logger
}

// NewTicketAuth 创建会话票据认证中间件
func NewTicketAuth(tickets *auth.TicketManager, log *zap.Logger) *TicketAuth {
	if log == nil {
		log = zap.NewNop()
	}
	return &TicketAuth{
		tickets: tickets,
		log:     log,
	}
}

// RequireSessionTicket 要求 Authorization: Bearer <会话票据>
func (ta *TicketAuth) RequireSessionTicket() gin.HandlerFunc {
	return func(c *gin.Context) {
		ticket := BearerToken(c)
		if ticket == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": http.StatusUnauthorized,
				"msg":  "session ticket required",
			})
			c.Abort()
			return
		}

		claims, err := ta.tickets.ParseSession(ticket)
		if err != nil {
			ta.log.Warn("invalid session ticket",
				zap.Error(err),
				zap.String("ip", c.ClientIP()),
			)
			msg := "invalid session ticket"
			if errors.Is(err, auth.ErrExpiredTicket) {
				msg = "session ticket expired, please reload the form"
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": http.StatusUnauthorized,
				"msg":  msg,
			})
			c.Abort()
			return
		}

		c.Set(ContextKeyTicketClaims, claims)
		c.Next()
	}
}

// TicketClaims 取出 RequireSessionTicket 写入的票据声明
func TicketClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextKeyTicketClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// BearerToken 从 Authorization 头提取 Bearer 令牌
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
