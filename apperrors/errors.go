// Package apperrors 定义服务层对外暴露的错误分类，控制器据此决定 HTTP 状态码。
package apperrors

import (
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/commonerrors"
)

// Kind 错误分类
type Kind int

const (
	KindApplication     Kind = iota // 500，内部细节只记录日志
	KindValidation                  // 400
	KindNotFound                    // 404
	KindUnauthorized                // 401
	KindConflict                    // 409
	KindTooManyRequests             // 429
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "application"
	}
}

// Error 携带分类、面向调用方的消息以及底层原因。
type Error struct {
	Kind Kind
	Msg  string
	Err  error

	// public 为 true 时 Application 错误的 Msg 原样返回给调用方 (运维配置类问题)
	public bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

func Unauthorized(msg string, cause error) error {
	return &Error{Kind: KindUnauthorized, Msg: msg, Err: cause}
}

func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

// TooManyRequests 触发限流
func TooManyRequests(msg string) error { return &Error{Kind: KindTooManyRequests, Msg: msg} }

func Application(msg string, cause error) error {
	return &Error{Kind: KindApplication, Msg: msg, Err: cause}
}

// Configuration 表示需要运维调整配置才能解决的故障，消息会原样返回。
func Configuration(msg string) error {
	return &Error{Kind: KindApplication, Msg: msg, public: true}
}

// KindOf 返回 err 的分类。未分类的错误视为 Application；commonerrors.ErrRepoNotFound 视为 NotFound。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, commonerrors.ErrRepoNotFound) {
		return KindNotFound
	}
	return KindApplication
}

// PublicMessage 返回可以展示给调用方的消息。
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind != KindApplication || e.public {
			return e.Msg
		}
		return commonerrors.ErrSystemError.Error()
	}
	if errors.Is(err, commonerrors.ErrRepoNotFound) {
		return "资源不存在"
	}
	return commonerrors.ErrSystemError.Error()
}
