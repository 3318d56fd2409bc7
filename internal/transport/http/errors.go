package httptransport

import (
	"errors"

	"photosite/backend/internal/auth"
	"photosite/backend/internal/service"
)

// 错误消息映射表（业务错误 -> 访客可见消息）
var errorMessages = map[error]string{
	// 票据错误
	auth.ErrInvalidTicket: MsgTicketInvalid,
	auth.ErrExpiredTicket: MsgFormExpired,

	// 联系表单错误
	service.ErrSessionExpired: MsgFormExpired,
	service.ErrInFlight:       MsgInFlight,
}

// GetErrorMessage 获取错误的访客可见消息
//
// 未登记的错误统一返回通用提示，不暴露内部错误文本。
func GetErrorMessage(err error) string {
	if msg, ok := errorMessages[err]; ok {
		return msg
	}
	for known, msg := range errorMessages {
		if errors.Is(err, known) {
			return msg
		}
	}
	return MsgGenericFailure
}

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest = "Please check the form and try again."

	// 票据相关
	MsgTicketRequired = "session ticket required"
	MsgTicketInvalid  = "invalid session ticket"
	MsgFormExpired    = "This form has expired. Please reload the page."

	// 提交结果
	MsgSent           = "Thanks! Your message was sent."
	MsgGenericFailure = "Sorry, something went wrong. Please try again."
	MsgSpam           = "Please take a moment and try again."
	MsgRateFormat     = "Please wait %ds before sending another message."
	MsgInFlight       = "Your message is already being sent."

	// 服务器错误
	MsgMountFailed   = "Sorry, the contact form is unavailable right now."
	MsgInternalError = "Sorry, something went wrong. Please try again."
)

func isTicketError(err error) bool {
	return errors.Is(err, auth.ErrInvalidTicket) || errors.Is(err, auth.ErrExpiredTicket)
}
