// Package auth 签发和校验联系表单的访客票据与会话票据。
//
// 票据只用于携带服务端生成的标识，防止客户端伪造访客 ID 或会话 ID；
// 表单令牌本身仍是独立的随机值，由提交时回传。
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidTicket 无效的票据
	ErrInvalidTicket = errors.New("invalid ticket")
	// ErrExpiredTicket 票据已过期
	ErrExpiredTicket = errors.New("ticket expired")
)

// TicketKind 票据类型
type TicketKind string

const (
	// KindVisitor 长期有效的访客票据，只携带访客 ID
	KindVisitor TicketKind = "visitor"
	// KindSession 一次表单挂载对应的会话票据
	KindSession TicketKind = "session"
)

// Claims 票据声明
type Claims struct {
	Kind      TicketKind `json:"kind"`
	VisitorID string     `json:"vid"`
	SessionID string     `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// TicketManager 票据管理器
type TicketManager struct {
	secret        []byte
	issuer        string
	visitorExpiry time.Duration
	sessionExpiry time.Duration
	now           func() time.Time
}

// NewTicketManager 创建票据管理器
//
// 参数:
//   - secret: HS256 签名密钥
//   - issuer: 签发者
//   - visitorExpiry: 访客票据有效期
//   - sessionExpiry: 会话票据有效期，应与会话存储的 TTL 一致
func NewTicketManager(secret, issuer string, visitorExpiry, sessionExpiry time.Duration) *TicketManager {
	return &TicketManager{
		secret:        []byte(secret),
		issuer:        issuer,
		visitorExpiry: visitorExpiry,
		sessionExpiry: sessionExpiry,
		now:           time.Now,
	}
}

// IssueVisitor 签发访客票据
func (m *TicketManager) IssueVisitor(visitorID string) (string, error) {
	return m.sign(Claims{Kind: KindVisitor, VisitorID: visitorID}, m.visitorExpiry)
}

// IssueSession 签发会话票据
func (m *TicketManager) IssueSession(visitorID, sessionID string) (string, error) {
	return m.sign(Claims{Kind: KindSession, VisitorID: visitorID, SessionID: sessionID}, m.sessionExpiry)
}

// ParseVisitor 校验访客票据，返回访客 ID
//
// 会话票据同样携带访客 ID，也被接受。
func (m *TicketManager) ParseVisitor(ticket string) (string, error) {
	claims, err := m.parse(ticket)
	if err != nil {
		return "", err
	}
	return claims.VisitorID, nil
}

// ParseSession 校验会话票据
func (m *TicketManager) ParseSession(ticket string) (*Claims, error) {
	claims, err := m.parse(ticket)
	if err != nil {
		return nil, err
	}
	if claims.Kind != KindSession || claims.SessionID == "" {
		return nil, ErrInvalidTicket
	}
	return claims, nil
}

func (m *TicketManager) sign(claims Claims, expiry time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   claims.VisitorID,
		ID:        claims.SessionID,
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign ticket: %w", err)
	}
	return signed, nil
}

func (m *TicketManager) parse(ticket string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(ticket, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredTicket
		}
		return nil, ErrInvalidTicket
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.VisitorID == "" {
		return nil, ErrInvalidTicket
	}

	return claims, nil
}
